package reranker

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// buildContextSummary renders the component counts and the strongest
// relationship as a short sentence.
func buildContextSummary(path string, components []types.RelatedComponent) string {
	if len(components) == 0 {
		return fmt.Sprintf("%s has no recorded relationships", filepath.Base(path))
	}

	counts := map[types.RelationType]int{}
	var top *types.RelatedComponent
	for i := range components {
		counts[components[i].RelationshipType]++
		if top == nil || components[i].RelevanceScore > top.RelevanceScore {
			top = &components[i]
		}
	}

	var parts []string
	for _, rel := range []types.RelationType{types.RelationImports, types.RelationCalls, types.RelationExtends, types.RelationImplements, types.RelationDependsOn} {
		if n := counts[rel]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, rel))
		}
	}
	summary := fmt.Sprintf("%s has %d related components", filepath.Base(path), len(components))
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	if top != nil {
		summary += fmt.Sprintf("; strongest link %s %s", top.RelationshipType, top.ComponentName)
	}
	return summary
}

// buildDependencyChain lists the result path followed by its top import
// and dependency targets, ordered by relevance.
func buildDependencyChain(path string, components []types.RelatedComponent) []string {
	var deps []types.RelatedComponent
	for _, c := range components {
		if c.RelationshipType == types.RelationImports || c.RelationshipType == types.RelationDependsOn {
			deps = append(deps, c)
		}
	}
	sort.SliceStable(deps, func(i, j int) bool {
		return deps[i].RelevanceScore > deps[j].RelevanceScore
	})
	if len(deps) > 3 {
		deps = deps[:3]
	}

	chain := []string{path}
	for _, d := range deps {
		chain = append(chain, d.FilePath)
	}
	return chain
}
