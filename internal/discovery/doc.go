// Package discovery walks a repository root and lists the source files
// eligible for analysis, skipping hidden, dependency, and build output
// directories.
package discovery
