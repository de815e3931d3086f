package reranker

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/mdevan/debias-mcp/internal/graphstore"
	"github.com/mdevan/debias-mcp/pkg/types"
)

// Score fusion weights. The textual weight is additionally scaled by
// (1 - bias*0.5), so higher bias strictly reduces the textual signal's
// contribution and never increases it.
const (
	TextualWeight    = 0.2
	SemanticWeight   = 0.5
	FunctionalWeight = 0.3
	BiasDamping      = 0.5
)

// synonyms maps a query token to terms treated as semantic matches.
var synonyms = map[string][]string{
	"search":   {"find", "locate", "query", "filter", "lookup"},
	"find":     {"search", "locate", "query", "filter"},
	"create":   {"make", "build", "construct", "generate", "new"},
	"delete":   {"remove", "destroy", "drop", "clear"},
	"update":   {"modify", "change", "edit", "mutate"},
	"validate": {"check", "verify", "ensure", "confirm"},
	"parse":    {"read", "decode", "extract", "scan"},
	"send":     {"transmit", "dispatch", "emit", "publish"},
	"fetch":    {"get", "retrieve", "load", "download"},
	"sort":     {"order", "rank", "arrange"},
}

// complexityKeywords raise the estimated complexity of a query.
var complexityKeywords = map[string]int{
	"recursive": 2, "algorithm": 1, "optimize": 1, "concurrent": 2,
	"parallel": 2, "graph": 1, "tree": 1, "traverse": 1, "complex": 2,
	"nested": 1, "parse": 1, "transform": 1, "simple": -1, "basic": -1,
}

// behaviorKeywords are the vocabulary used for behavior overlap scoring.
var behaviorKeywords = []string{
	"read", "write", "parse", "transform", "filter", "aggregate", "sort",
	"search", "validate", "compute", "store", "fetch", "cache", "iterate",
	"traverse", "merge", "split", "encode", "decode", "render",
}

// Reranker fuses textual, semantic, functional, and bias signals into one
// combined score and enriches results with graph context.
type Reranker struct {
	store graphstore.Store
}

// New creates a Reranker backed by the given store. The store is only used
// by the context-enriched variant.
func New(store graphstore.Store) *Reranker {
	return &Reranker{store: store}
}

// Rerank scores the candidates against the query, sorts descending by
// combined score, localizes relevant regions, and truncates to topK.
func (r *Reranker) Rerank(candidates []*types.CodeRepresentation, query string, topK int) []types.RetrievalResult {
	if topK <= 0 {
		topK = 10
	}
	queryTokens := tokenize(query)

	results := make([]types.RetrievalResult, 0, len(candidates))
	for _, cand := range candidates {
		scores := r.score(cand, query, queryTokens)
		results = append(results, types.RetrievalResult{
			FilePath: cand.FilePath,
			Content:  cand.Content,
			Scores:   scores,
			Regions:  Localize(cand.Content, queryTokens),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Scores.Combined > results[j].Scores.Combined
	})
	if len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// RerankWithContext is Rerank plus graph-derived context for each result:
// related components to depth 2, a natural-language summary, and a
// dependency chain.
func (r *Reranker) RerankWithContext(ctx context.Context, candidates []*types.CodeRepresentation, query string, topK int) []types.EnhancedRetrievalResult {
	base := r.Rerank(candidates, query, topK)

	enhanced := make([]types.EnhancedRetrievalResult, len(base))
	for i, res := range base {
		enhanced[i] = types.EnhancedRetrievalResult{RetrievalResult: res}

		components, err := r.store.RelatedComponents(ctx, res.FilePath, graphstore.TraversalOptions{MaxDepth: 2})
		if err != nil {
			continue // result stays usable without context
		}
		enhanced[i].RelatedComponents = components
		enhanced[i].ContextSummary = buildContextSummary(res.FilePath, components)
		enhanced[i].DependencyChain = buildDependencyChain(res.FilePath, components)
	}
	return enhanced
}

// score computes the four signals and their fused combination for one
// candidate.
func (r *Reranker) score(cand *types.CodeRepresentation, query string, queryTokens []string) types.ScoreBreakdown {
	textual := textualSimilarity(queryTokens, cand)
	semantic := semanticSimilarity(queryTokens, cand)
	functional := functionalSimilarity(query, cand)
	return CombineScores(textual, semantic, functional, cand.BiasScore)
}

// CombineScores fuses the three similarity signals under bias-adjusted
// weights: biasAdjustment = 1 - bias*0.5, textual weight = 0.2*biasAdjustment,
// combined = sum(score*weight) / sum(weight).
func CombineScores(textual, semantic, functional, bias float64) types.ScoreBreakdown {
	biasAdjustment := 1.0 - bias*BiasDamping
	wTextual := TextualWeight * biasAdjustment
	wSum := wTextual + SemanticWeight + FunctionalWeight

	combined := (textual*wTextual + semantic*SemanticWeight + functional*FunctionalWeight) / wSum

	return types.ScoreBreakdown{
		Textual:    textual,
		Semantic:   semantic,
		Functional: functional,
		Bias:       bias,
		Combined:   clamp01(combined),
	}
}

// textualSimilarity is the fraction of query tokens literally present in
// the candidate's textual surface and content.
func textualSimilarity(queryTokens []string, cand *types.CodeRepresentation) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(cand.Content + " " + strings.Join(cand.Textual.Surface(), " "))
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(haystack, tok) {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// semanticSimilarity is the fraction of query tokens matching the
// candidate's functional signature and behavior pattern, counting curated
// synonyms as matches.
func semanticSimilarity(queryTokens []string, cand *types.CodeRepresentation) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	haystack := strings.ToLower(cand.Semantic.FunctionalSignature + " " + cand.Semantic.BehaviorPattern)
	matched := 0
	for _, tok := range queryTokens {
		if strings.Contains(haystack, tok) {
			matched++
			continue
		}
		for _, syn := range synonyms[tok] {
			if strings.Contains(haystack, syn) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// functionalSimilarity blends complexity proximity with behavior-keyword
// overlap.
func functionalSimilarity(query string, cand *types.CodeRepresentation) float64 {
	qc := EstimateQueryComplexity(query)
	cc := cand.Structural.Complexity
	if cc < 1 {
		cc = 1
	}
	if cc > 6 {
		cc = 6
	}
	complexityMatch := 1.0 - math.Abs(float64(qc-cc))/5.0

	behavior := strings.ToLower(cand.Semantic.BehaviorPattern)
	queryLower := strings.ToLower(query)
	queryHits, behaviorHits, shared := 0, 0, 0
	for _, kw := range behaviorKeywords {
		inQuery := strings.Contains(queryLower, kw)
		inBehavior := strings.Contains(behavior, kw)
		if inQuery {
			queryHits++
		}
		if inBehavior {
			behaviorHits++
		}
		if inQuery && inBehavior {
			shared++
		}
	}
	overlap := 0.0
	if queryHits > 0 {
		overlap = float64(shared) / float64(queryHits)
	}

	return clamp01(0.5*complexityMatch + 0.5*overlap)
}

// EstimateQueryComplexity derives a 1-6 complexity estimate from query
// keywords and length.
func EstimateQueryComplexity(query string) int {
	score := 1
	lower := strings.ToLower(query)
	for kw, delta := range complexityKeywords {
		if strings.Contains(lower, kw) {
			score += delta
		}
	}
	if len(strings.Fields(query)) > 8 {
		score++
	}
	if score < 1 {
		score = 1
	}
	if score > 6 {
		score = 6
	}
	return score
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})
	var out []string
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
