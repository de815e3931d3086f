// Package bias scores how much a file's retrieval relevance depends on its
// textual surface (names, comments, docstrings) rather than its structure.
//
// The detector masks a copy of the representation: docstrings and comments
// are emptied and identifiers are replaced with a fixed placeholder token.
// Structural metrics are then re-derived from the masked content and compared
// against a baseline derived from the original content by the same heuristic
// strategy; the complement of the average per-metric similarity is the bias
// score in [0,1].
//
// Indicators fire independently at fixed thresholds: docstring-to-content
// ratio above 10%, identifier-complexity score above 0.70, and
// comment-to-content ratio above 15%.
package bias
