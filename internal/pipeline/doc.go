// Package pipeline runs the end-to-end analysis flow: discover source
// files, extract features, score textual bias, augment with oracle
// semantics, and persist representations and relationship edges. It also
// serves the query side, fanning retrieval through the store and the
// reranker, and answers update, bias-report, and status requests.
//
// Repository analysis is concurrent with a bounded worker pool; files
// whose stored content is unchanged are skipped. Every externally supplied
// path is validated against the repository root before any read or
// mutation.
package pipeline
