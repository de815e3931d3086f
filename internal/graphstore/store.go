package graphstore

import (
	"context"
	"errors"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// ErrNotFound is returned when a representation does not exist.
var ErrNotFound = errors.New("not found")

// DefaultTypeWeights is the static per-type edge weight table. An explicit
// weight on an edge overrides the table.
var DefaultTypeWeights = map[types.RelationType]float64{
	types.RelationImports:    1.0,
	types.RelationExtends:    0.95,
	types.RelationCalls:      0.9,
	types.RelationImplements: 0.9,
	types.RelationExports:    0.8,
	types.RelationUses:       0.7,
	types.RelationDependsOn:  0.6,
	types.RelationMixin:      0.85,
}

// TypeWeight returns the default weight for a relation type.
func TypeWeight(rt types.RelationType) float64 {
	if w, ok := DefaultTypeWeights[rt]; ok {
		return w
	}
	return 0.5
}

// Edge is a stored, typed, weighted relationship between two files or
// between a file and an external module identifier.
type Edge struct {
	From       string
	To         string
	Type       types.RelationType
	Weight     float64 // 0 means "use the type default"
	LineNumber int
	Details    string // free-form JSON details (symbols, usage)
}

// TraversalOptions bounds a related-components query.
type TraversalOptions struct {
	MaxDepth          int
	Types             []types.RelationType // empty means all types
	MinRelevanceScore float64
	Weights           map[types.RelationType]float64 // per-call overrides
}

// Store persists representations and relationship edges, answers hybrid
// search, and runs bounded weighted traversal. Implementations are
// namespaced per repository.
type Store interface {
	// Representation operations
	UpsertRepresentation(ctx context.Context, rep *types.CodeRepresentation) error
	GetRepresentation(ctx context.Context, filePath string) (*types.CodeRepresentation, error)
	DeleteRepresentation(ctx context.Context, filePath string) error
	ListPaths(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (representations, relationships int, err error)

	// Edge operations
	StoreRelationship(ctx context.Context, edge Edge) error
	EdgesFrom(ctx context.Context, filePath string) ([]Edge, error)
	DeleteEdgesFrom(ctx context.Context, filePath string) error

	// Search returns ranked candidate representations for a query using
	// fused lexical and semantic retrieval.
	Search(ctx context.Context, query string, limit int) ([]*types.CodeRepresentation, error)

	// Traversal operations
	RelatedComponents(ctx context.Context, filePath string, opts TraversalOptions) ([]types.RelatedComponent, error)
	Traverse(ctx context.Context, filePath string, relTypes []types.RelationType, maxDepth int) (*types.GraphTraversalResult, error)

	// Close releases the underlying database.
	Close() error
}
