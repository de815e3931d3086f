package graphstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdevan/debias-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRep(path string) *types.CodeRepresentation {
	rels := types.RelationshipSet{}
	return &types.CodeRepresentation{
		FilePath: path,
		Content:  "function search(q) { return index.find(q); }",
		Textual: types.TextualFeatures{
			Identifiers: []string{"search"},
		},
		Structural: types.StructuralFeatures{Complexity: 2, FunctionCount: 1},
		Semantic: types.SemanticFeatures{
			FunctionalSignature: "searches an index",
			BehaviorPattern:     "lookup by key",
		},
		Relationships:      &rels,
		BiasScore:          0.4,
		AugmentedEmbedding: []float32{0.1, 0.2, 0.3},
	}
}

func TestUpsertAndGetRepresentation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rep := sampleRep("/repo/a.js")
	require.NoError(t, store.UpsertRepresentation(ctx, rep))

	got, err := store.GetRepresentation(ctx, "/repo/a.js")
	require.NoError(t, err)
	assert.Equal(t, rep.Content, got.Content)
	assert.Equal(t, rep.Structural, got.Structural)
	assert.Equal(t, rep.Semantic.FunctionalSignature, got.Semantic.FunctionalSignature)
	assert.InDelta(t, 0.4, got.BiasScore, 1e-9)
	assert.Equal(t, rep.AugmentedEmbedding, got.AugmentedEmbedding)
}

func TestUpsertReplacesPreviousRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rep := sampleRep("/repo/a.js")
	require.NoError(t, store.UpsertRepresentation(ctx, rep))

	rep.Content = "function search(q) { return null; }"
	rep.BiasScore = 0.9
	require.NoError(t, store.UpsertRepresentation(ctx, rep))

	got, err := store.GetRepresentation(ctx, "/repo/a.js")
	require.NoError(t, err)
	assert.Equal(t, rep.Content, got.Content)
	assert.InDelta(t, 0.9, got.BiasScore, 1e-9)

	reps, _, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reps)
}

func TestGetRepresentationNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRepresentation(context.Background(), "/repo/missing.js")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRepresentationRemovesEdges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertRepresentation(ctx, sampleRep("/repo/a.js")))
	require.NoError(t, store.UpsertRepresentation(ctx, sampleRep("/repo/b.js")))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/a.js", To: "/repo/b.js", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/b.js", To: "/repo/a.js", Type: types.RelationCalls}))

	require.NoError(t, store.DeleteRepresentation(ctx, "/repo/a.js"))

	_, err := store.GetRepresentation(ctx, "/repo/a.js")
	assert.ErrorIs(t, err, ErrNotFound)

	_, rels, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rels)
}

func TestDeleteEdgesFromKeepsIncoming(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/a.js", To: "/repo/b.js", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/b.js", To: "/repo/a.js", Type: types.RelationCalls}))

	require.NoError(t, store.DeleteEdgesFrom(ctx, "/repo/a.js"))

	out, err := store.EdgesFrom(ctx, "/repo/a.js")
	require.NoError(t, err)
	assert.Empty(t, out)

	in, err := store.EdgesFrom(ctx, "/repo/b.js")
	require.NoError(t, err)
	assert.Len(t, in, 1)
}

func TestStoreRelationshipDefaultWeight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/c", Type: types.RelationDependsOn, Weight: 0.25}))

	edges, err := store.EdgesFrom(ctx, "/a")
	require.NoError(t, err)
	require.Len(t, edges, 2)

	byTarget := map[string]Edge{}
	for _, e := range edges {
		byTarget[e.To] = e
	}
	assert.InDelta(t, 1.0, byTarget["/b"].Weight, 1e-9)
	assert.InDelta(t, 0.25, byTarget["/c"].Weight, 1e-9)
}

func TestStoreRelationshipRejectsUnknownType(t *testing.T) {
	store := newTestStore(t)

	err := store.StoreRelationship(context.Background(), Edge{From: "/a", To: "/b", Type: "follows"})
	assert.Error(t, err)
}

func TestListPathsSorted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertRepresentation(ctx, sampleRep("/repo/z.js")))
	require.NoError(t, store.UpsertRepresentation(ctx, sampleRep("/repo/a.js")))

	paths, err := store.ListPaths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/repo/a.js", "/repo/z.js"}, paths)
}

func TestSearchLexical(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	match := sampleRep("/repo/search.js")
	miss := sampleRep("/repo/render.js")
	miss.Content = "function render(el) { el.paint(); }"
	miss.Textual.Identifiers = []string{"render"}
	miss.Semantic.FunctionalSignature = "draws a widget"
	require.NoError(t, store.UpsertRepresentation(ctx, match))
	require.NoError(t, store.UpsertRepresentation(ctx, miss))

	results, err := store.Search(ctx, "search index", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "/repo/search.js", results[0].FilePath)
}

func TestSearchEmptyQuery(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Search(context.Background(), "   ", 10)
	assert.Error(t, err)
}

func TestTraversalRelevanceDecaysWithDistance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// a imports b, b calls c, c imports d
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/a.js", To: "/repo/b.js", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/b.js", To: "/repo/c.js", Type: types.RelationCalls}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/c.js", To: "/repo/d.js", Type: types.RelationImports}))

	components, err := store.RelatedComponents(ctx, "/repo/a.js", TraversalOptions{MaxDepth: 3})
	require.NoError(t, err)
	require.Len(t, components, 3)

	// sorted by relevance: b (1.0*1), c (0.9*1/2), d (1.0*1/3)
	assert.Equal(t, "/repo/b.js", components[0].FilePath)
	assert.InDelta(t, 1.0, components[0].RelevanceScore, 1e-9)
	assert.Equal(t, 1, components[0].Distance)

	assert.Equal(t, "/repo/c.js", components[1].FilePath)
	assert.InDelta(t, 0.45, components[1].RelevanceScore, 1e-9)
	assert.Equal(t, 2, components[1].Distance)

	assert.Equal(t, "/repo/d.js", components[2].FilePath)
	assert.InDelta(t, 1.0/3.0, components[2].RelevanceScore, 1e-9)
	assert.Equal(t, 3, components[2].Distance)
}

func TestTraversalDepthBound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/b", To: "/c", Type: types.RelationImports}))

	components, err := store.RelatedComponents(ctx, "/a", TraversalOptions{MaxDepth: 1})
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "/b", components[0].FilePath)
}

func TestTraversalCycleSafe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/b", To: "/a", Type: types.RelationImports}))

	result, err := store.Traverse(ctx, "/a", nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.NodesVisited)
}

func TestTraversalTypeFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/c", Type: types.RelationCalls}))

	components, err := store.RelatedComponents(ctx, "/a", TraversalOptions{
		MaxDepth: 2,
		Types:    []types.RelationType{types.RelationCalls},
	})
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "/c", components[0].FilePath)
	assert.Equal(t, "function", components[0].ComponentType)
}

func TestTraversalMinRelevanceFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))
	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/b", To: "/c", Type: types.RelationDependsOn}))

	components, err := store.RelatedComponents(ctx, "/a", TraversalOptions{
		MaxDepth:          3,
		MinRelevanceScore: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "/b", components[0].FilePath)
}

func TestTraversalWeightOverride(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/a", To: "/b", Type: types.RelationImports}))

	components, err := store.RelatedComponents(ctx, "/a", TraversalOptions{
		MaxDepth: 1,
		Weights:  map[types.RelationType]float64{types.RelationImports: 0.2},
	})
	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.InDelta(t, 0.2, components[0].RelevanceScore, 1e-9)
}

func TestTraversalSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.StoreRelationship(ctx, Edge{From: "/repo/a.js", To: "/repo/b.js", Type: types.RelationImports}))

	result, err := store.Traverse(ctx, "/repo/a.js", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, "/repo/a.js", result.Graph.PrimaryNode)
	require.Len(t, result.Graph.Nodes, 2)
	assert.Equal(t, "a", result.Graph.Nodes[0].Label)
	require.Len(t, result.Graph.Edges, 1)
	assert.Equal(t, types.RelationImports, result.Graph.Edges[0].Type)
	assert.Equal(t, 1, result.Stats.MaxDepthReached)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.0}
	assert.Equal(t, vec, deserializeVector(serializeVector(vec)))
}
