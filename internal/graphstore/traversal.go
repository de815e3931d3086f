package graphstore

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// DefaultMaxDepth bounds traversal when the caller does not specify one.
const DefaultMaxDepth = 3

// RelatedComponents runs a bounded weighted traversal and returns the
// discovered components, filtered by minimum relevance and sorted by
// descending relevance.
func (s *SQLiteStore) RelatedComponents(ctx context.Context, filePath string, opts TraversalOptions) ([]types.RelatedComponent, error) {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	result, err := s.traverse(ctx, filePath, opts)
	if err != nil {
		return nil, err
	}

	components := result.RelatedComponents
	if opts.MinRelevanceScore > 0 {
		kept := components[:0]
		for _, c := range components {
			if c.RelevanceScore >= opts.MinRelevanceScore {
				kept = append(kept, c)
			}
		}
		components = kept
	}
	return components, nil
}

// Traverse runs a bounded traversal and returns the components together
// with an on-demand graph snapshot and traversal stats.
func (s *SQLiteStore) Traverse(ctx context.Context, filePath string, relTypes []types.RelationType, maxDepth int) (*types.GraphTraversalResult, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return s.traverse(ctx, filePath, TraversalOptions{MaxDepth: maxDepth, Types: relTypes})
}

// queueEntry is one BFS frontier element.
type queueEntry struct {
	path     string
	distance int
}

// traverse is the breadth-first core. A visited set keyed by file path
// guarantees each node is enqueued at most once per call, which makes the
// walk cycle-safe. When multiple paths reach the same file, the maximum
// relevance score wins and the minimum distance is kept.
func (s *SQLiteStore) traverse(ctx context.Context, startPath string, opts TraversalOptions) (*types.GraphTraversalResult, error) {
	start := time.Now()

	typeFilter := map[types.RelationType]bool{}
	for _, t := range opts.Types {
		typeFilter[t] = true
	}

	weightFor := func(e Edge) float64 {
		if opts.Weights != nil {
			if w, ok := opts.Weights[e.Type]; ok {
				return w
			}
		}
		if e.Weight > 0 {
			return e.Weight
		}
		return TypeWeight(e.Type)
	}

	found := map[string]*types.RelatedComponent{}
	snapshot := types.RelationshipGraph{
		PrimaryNode: startPath,
		MaxDepth:    opts.MaxDepth,
		Nodes:       []types.GraphNode{{FilePath: startPath, Label: componentLabel(startPath)}},
	}
	stats := types.TraversalStats{NodesVisited: 1}

	visited := map[string]bool{startPath: true}
	queue := []queueEntry{{path: startPath, distance: 0}}

	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]

		if entry.distance >= opts.MaxDepth {
			continue
		}

		edges, err := s.EdgesFrom(ctx, entry.path)
		if err != nil {
			return nil, err
		}

		for _, e := range edges {
			if len(typeFilter) > 0 && !typeFilter[e.Type] {
				continue
			}
			stats.EdgesTraversed++

			distance := entry.distance + 1
			relevance := weightFor(e) * (1.0 / float64(distance))
			if relevance > 1 {
				relevance = 1
			}

			if existing, ok := found[e.To]; ok {
				if relevance > existing.RelevanceScore {
					existing.RelevanceScore = relevance
					existing.RelationshipType = e.Type
				}
				if distance < existing.Distance {
					existing.Distance = distance
				}
			} else {
				found[e.To] = &types.RelatedComponent{
					FilePath:         e.To,
					ComponentName:    componentLabel(e.To),
					ComponentType:    componentTypeFor(e.Type),
					RelationshipType: e.Type,
					RelevanceScore:   relevance,
					Distance:         distance,
				}
				snapshot.Nodes = append(snapshot.Nodes, types.GraphNode{
					FilePath: e.To, Label: componentLabel(e.To),
				})
			}
			snapshot.Edges = append(snapshot.Edges, types.GraphEdge{
				From: e.From, To: e.To, Type: e.Type, Weight: weightFor(e),
			})

			if !visited[e.To] {
				visited[e.To] = true
				stats.NodesVisited++
				if distance > stats.MaxDepthReached {
					stats.MaxDepthReached = distance
				}
				queue = append(queue, queueEntry{path: e.To, distance: distance})
			}
		}
	}

	components := make([]types.RelatedComponent, 0, len(found))
	for _, c := range found {
		components = append(components, *c)
	}
	sort.Slice(components, func(i, j int) bool {
		if components[i].RelevanceScore != components[j].RelevanceScore {
			return components[i].RelevanceScore > components[j].RelevanceScore
		}
		return components[i].FilePath < components[j].FilePath
	})

	stats.ElapsedMS = time.Since(start).Milliseconds()

	return &types.GraphTraversalResult{
		RelatedComponents: components,
		Graph:             snapshot,
		Stats:             stats,
	}, nil
}

// componentLabel derives a display name from a file path or module
// identifier.
func componentLabel(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}

// componentTypeFor maps an edge type to the kind of component it points at.
func componentTypeFor(rt types.RelationType) string {
	switch rt {
	case types.RelationImports, types.RelationDependsOn, types.RelationUses:
		return "module"
	case types.RelationExtends, types.RelationImplements, types.RelationMixin:
		return "class"
	case types.RelationCalls:
		return "function"
	case types.RelationExports:
		return "symbol"
	}
	return "component"
}
