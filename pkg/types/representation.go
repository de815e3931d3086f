package types

import (
	"errors"
	"time"
)

// TextualFeatures holds the textual surface of a source file: the parts a
// naive retriever tends to over-weight.
type TextualFeatures struct {
	Docstrings    []string
	Comments      []string
	Identifiers   []string
	VariableNames []string
}

// Surface returns every textual fragment as a single slice, in extraction order.
func (tf *TextualFeatures) Surface() []string {
	out := make([]string, 0, len(tf.Docstrings)+len(tf.Comments)+len(tf.Identifiers)+len(tf.VariableNames))
	out = append(out, tf.Docstrings...)
	out = append(out, tf.Comments...)
	out = append(out, tf.Identifiers...)
	out = append(out, tf.VariableNames...)
	return out
}

// StructuralFeatures holds language-independent structure metrics.
// All values are non-negative; Complexity is at least 1 for any parsed file.
type StructuralFeatures struct {
	NodeCount     int
	Complexity    int
	NestingDepth  int
	FunctionCount int
	ClassCount    int
}

// Validate checks the structural invariants.
func (sf *StructuralFeatures) Validate() error {
	if sf.Complexity < 1 {
		return errors.New("complexity must be >= 1")
	}
	if sf.NodeCount < 0 || sf.NestingDepth < 0 || sf.FunctionCount < 0 || sf.ClassCount < 0 {
		return errors.New("structural counts must be non-negative")
	}
	return nil
}

// SemanticFeatures holds oracle-derived descriptors of what the code does.
type SemanticFeatures struct {
	Embedding           []float32
	FunctionalSignature string
	BehaviorPattern     string
}

// CodeRepresentation is the unit of storage and retrieval. Identity is the
// absolute repository-relative file path; a reprocessed file fully replaces
// the previous representation under the same path.
type CodeRepresentation struct {
	FilePath string
	Content  string

	Textual       TextualFeatures
	Structural    StructuralFeatures
	Semantic      SemanticFeatures
	Relationships *RelationshipSet // nil until extraction runs

	BiasScore          float64
	AugmentedEmbedding []float32

	LastModified time.Time
}

// Validate performs comprehensive validation of the representation.
func (cr *CodeRepresentation) Validate() error {
	if cr.FilePath == "" {
		return errors.New("file path is required")
	}
	if cr.BiasScore < 0 || cr.BiasScore > 1 {
		return ErrInvalidBiasScore
	}
	return cr.Structural.Validate()
}

// Clone returns a deep copy. Mutating the copy never affects the original,
// which is what lets the bias detector mask a representation in place.
func (cr *CodeRepresentation) Clone() *CodeRepresentation {
	out := &CodeRepresentation{
		FilePath:     cr.FilePath,
		Content:      cr.Content,
		Structural:   cr.Structural,
		BiasScore:    cr.BiasScore,
		LastModified: cr.LastModified,
	}
	out.Textual = TextualFeatures{
		Docstrings:    append([]string(nil), cr.Textual.Docstrings...),
		Comments:      append([]string(nil), cr.Textual.Comments...),
		Identifiers:   append([]string(nil), cr.Textual.Identifiers...),
		VariableNames: append([]string(nil), cr.Textual.VariableNames...),
	}
	out.Semantic = SemanticFeatures{
		Embedding:           append([]float32(nil), cr.Semantic.Embedding...),
		FunctionalSignature: cr.Semantic.FunctionalSignature,
		BehaviorPattern:     cr.Semantic.BehaviorPattern,
	}
	out.AugmentedEmbedding = append([]float32(nil), cr.AugmentedEmbedding...)
	if cr.Relationships != nil {
		rs := cr.Relationships.Clone()
		out.Relationships = &rs
	}
	return out
}
