// Package graphstore persists code representations and typed, weighted
// relationship edges in SQLite, namespaced per repository.
//
// The store answers three kinds of queries:
//
//   - Search: hybrid candidate retrieval fusing a lexical token ranking and
//     a cosine-similarity ranking over augmented embeddings with Reciprocal
//     Rank Fusion.
//   - RelatedComponents / Traverse: breadth-first weighted traversal bounded
//     by depth, with relevance = typeWeight * (1/distance). A visited set
//     keyed by file path makes the walk cycle-safe; when several paths reach
//     the same file the maximum relevance wins and the minimum distance is
//     kept.
//   - Counts / ListPaths: bookkeeping for system statistics.
//
// Edge weights default from a static per-type table (imports 1.0,
// extends 0.95, calls 0.9, implements 0.9, exports 0.8, uses 0.7,
// depends_on 0.6) unless an explicit weight is stored.
//
// # Build Tags
//
// Two SQLite drivers are supported:
//
//   - default / CGO_ENABLED=0: modernc.org/sqlite (pure Go)
//   - -tags cgo_sqlite: github.com/mattn/go-sqlite3 (CGO)
package graphstore
