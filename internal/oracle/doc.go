// Package oracle defines the external embedding/completion capability ports
// and their providers.
//
// The Embedder and Completer interfaces are narrow on purpose: they are
// injected into the semantic augmenter and the graph store's semantic search
// and consumed nowhere else, so tests can substitute fakes returning fixed
// vectors and text.
//
// Two providers ship with the module: an OpenAI HTTP provider with
// exponential-backoff retry and an LRU embedding cache, and a deterministic
// local provider for offline use. Provider selection follows environment
// variables via NewFromEnv.
package oracle
