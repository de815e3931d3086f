// Package extractor turns source text into textual features, structural
// metrics, and typed file relationships.
//
// Extraction is polymorphic over language capability. A Registry selects a
// strategy by normalized file extension:
//
//   - AST-based for Go, built on go/parser and go/ast
//   - regex-based for JavaScript, TypeScript, and Python
//   - generic pattern matching for everything else
//
// Extraction never fails. An AST parse error falls back to the regex path
// for that file, and a heuristic failure yields zero-valued features:
//
//	reg := extractor.NewRegistry()
//	res := reg.Extract(content, "/workspace/a.js", "")
//	// res is never nil
//
// Relative import specifiers ("./x", "../y") are canonicalized to absolute
// repository-relative paths against the importing file's directory before
// storage; all other specifiers are kept verbatim as external module
// identifiers.
//
// Structural complexity increments once per branching construct observed
// (conditionals, loops, switch cases, logical operators). Nesting depth is
// the maximum AST depth for the Go strategy and the maximum indentation
// depth for the heuristic strategies.
package extractor
