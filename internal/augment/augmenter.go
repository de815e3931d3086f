package augment

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdevan/debias-mcp/internal/oracle"
	"github.com/mdevan/debias-mcp/pkg/types"
)

const (
	// BaseWeight and SemanticWeight control the pointwise blend of the
	// content embedding and the structure-emphasizing embedding.
	BaseWeight     = 0.3
	SemanticWeight = 0.7

	// maxContentChars bounds how much raw content is sent to the oracle.
	maxContentChars = 8000

	// PlaceholderSignature and PlaceholderBehavior are used when the oracle
	// is unavailable; the file still gets a complete representation.
	PlaceholderSignature = "functionality analysis unavailable (oracle error)"
	PlaceholderBehavior  = "behavior analysis unavailable (oracle error)"
)

// Augmenter populates semantic features and the augmented embedding of a
// representation by calling the external oracle.
type Augmenter struct {
	embedder  oracle.Embedder
	completer oracle.Completer
}

// New creates an Augmenter with the given capability ports.
func New(embedder oracle.Embedder, completer oracle.Completer) *Augmenter {
	return &Augmenter{embedder: embedder, completer: completer}
}

// Augment returns a representation with semantic features and the augmented
// embedding populated. Oracle failures degrade to placeholder text and a
// base-only embedding; Augment never fails the file for a transient oracle
// error.
func (a *Augmenter) Augment(ctx context.Context, rep *types.CodeRepresentation) *types.CodeRepresentation {
	out := rep.Clone()

	baseEmbedding, baseErr := a.embedder.Embed(ctx, truncate(rep.Content, maxContentChars))

	signature, behavior := a.describeFunctionality(ctx, rep)
	out.Semantic.FunctionalSignature = signature
	out.Semantic.BehaviorPattern = behavior

	semanticEmbedding, semErr := a.embedder.Embed(ctx, a.structuralDescription(rep, behavior, signature))
	out.Semantic.Embedding = semanticEmbedding

	switch {
	case baseErr == nil && semErr == nil:
		out.AugmentedEmbedding = CombineEmbeddings(baseEmbedding, semanticEmbedding)
	case baseErr == nil:
		out.AugmentedEmbedding = baseEmbedding
	case semErr == nil:
		out.AugmentedEmbedding = semanticEmbedding
	default:
		out.AugmentedEmbedding = []float32{}
	}

	return out
}

// describeFunctionality prompts the oracle to describe what the code does
// while explicitly ignoring names and comments. On failure it returns
// placeholder text.
func (a *Augmenter) describeFunctionality(ctx context.Context, rep *types.CodeRepresentation) (signature, behavior string) {
	prompt := fmt.Sprintf(`Describe the functionality of this code.
Ignore identifier names, comments, and docstrings entirely; describe only
what the code does based on its operations and control flow.
Respond with two lines:
signature: <one-line functional signature>
behavior: <one-line behavior pattern>

Code:
%s`, truncate(rep.Content, maxContentChars))

	resp, err := a.completer.Complete(ctx, prompt)
	if err != nil {
		return PlaceholderSignature, PlaceholderBehavior
	}

	signature, behavior = parseDescription(resp)
	if signature == "" {
		signature = PlaceholderSignature
	}
	if behavior == "" {
		behavior = PlaceholderBehavior
	}
	return signature, behavior
}

// structuralDescription builds the synthetic text the semantic embedding is
// computed from. It deliberately excludes raw identifiers and comments so
// the embedding favors structure over text.
func (a *Augmenter) structuralDescription(rep *types.CodeRepresentation, behavior, signature string) string {
	s := rep.Structural
	var b strings.Builder
	fmt.Fprintf(&b, "code unit with complexity %d, nesting depth %d, %d functions, %d classes, %d nodes.",
		s.Complexity, s.NestingDepth, s.FunctionCount, s.ClassCount, s.NodeCount)
	if rep.Relationships != nil {
		fmt.Fprintf(&b, " %d imports, %d calls, %d inheritance links.",
			len(rep.Relationships.Imports), len(rep.Relationships.Calls), len(rep.Relationships.Inheritance))
	}
	b.WriteString(" behavior: ")
	b.WriteString(behavior)
	b.WriteString(" signature: ")
	b.WriteString(signature)
	return b.String()
}

// CombineEmbeddings blends two vectors pointwise as 0.3*base + 0.7*semantic.
// Missing dimensions are treated as zero; the output length is the max of
// the two input lengths.
func CombineEmbeddings(base, semantic []float32) []float32 {
	n := len(base)
	if len(semantic) > n {
		n = len(semantic)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var b, s float32
		if i < len(base) {
			b = base[i]
		}
		if i < len(semantic) {
			s = semantic[i]
		}
		out[i] = float32(BaseWeight)*b + float32(SemanticWeight)*s
	}
	return out
}

// parseDescription extracts the signature and behavior lines from an oracle
// response, tolerating free-form answers.
func parseDescription(resp string) (signature, behavior string) {
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "signature:"):
			signature = strings.TrimSpace(line[len("signature:"):])
		case strings.HasPrefix(lower, "behavior:"):
			behavior = strings.TrimSpace(line[len("behavior:"):])
		}
	}
	if signature == "" && behavior == "" {
		// Free-form answer: use the first non-empty line for both.
		for _, line := range strings.Split(resp, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				signature = line
				behavior = line
				break
			}
		}
	}
	return signature, behavior
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
