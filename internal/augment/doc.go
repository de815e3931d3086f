// Package augment enriches code representations with oracle-derived
// semantic features: a structure-emphasizing embedding, a functional
// signature, and a behavior pattern.
//
// The augmenter blends the base content embedding with the semantic
// embedding pointwise (0.3 base, 0.7 semantic). Oracle failures degrade to
// placeholder text for the affected file instead of failing the pipeline.
package augment
