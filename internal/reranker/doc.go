// Package reranker orders retrieval candidates by a fused relevance score.
//
// Three signals are computed per candidate: textual similarity (query
// tokens found in the surface text), semantic similarity (query tokens
// matching the functional signature and behavior pattern, with curated
// synonym matching), and functional similarity (complexity proximity plus
// behavior-keyword overlap). The textual weight is damped by the
// candidate's bias score so heavily name-dependent code cannot win on
// keyword matches alone.
//
// Results carry localized code regions, and the context-enriched variant
// attaches related components, a summary, and a dependency chain from the
// relationship graph.
package reranker
