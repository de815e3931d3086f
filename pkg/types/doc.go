// Package types defines the shared domain types for bias-corrected code
// retrieval: code representations with textual/structural/semantic features,
// typed file relationships, traversal views, retrieval results, and the
// statistics structures returned by the public operations.
//
// Types here are plain data with validation methods; all behavior lives in
// the internal packages.
package types
