package bias

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mdevan/debias-mcp/internal/extractor"
	"github.com/mdevan/debias-mcp/pkg/types"
)

const (
	// PlaceholderToken replaces every identifier and variable name in a
	// masked representation.
	PlaceholderToken = "xid"

	// Indicator thresholds
	DocstringRatioThreshold    = 0.10
	IdentifierScoreThreshold   = 0.70
	CommentRatioThreshold      = 0.15
	identifierLengthNormalizer = 20.0

	// Indicator types
	IndicatorDocstring  = "docstring_dependency"
	IndicatorIdentifier = "identifier_complexity"
	IndicatorComment    = "comment_dependency"
)

// Detector scores how much a representation's retrieval relevance depends on
// its textual surface rather than its structure.
type Detector struct {
	registry *extractor.Registry
}

// NewDetector creates a Detector. The registry is used to re-extract
// structural features from masked content.
func NewDetector() *Detector {
	return &Detector{registry: extractor.NewRegistry()}
}

// DetectBias computes the bias score in [0,1]. It masks the representation's
// textual surface, re-derives structural features from the masked content,
// and reports the complement of the average structural similarity.
func (d *Detector) DetectBias(rep *types.CodeRepresentation) float64 {
	masked := d.Mask(rep)

	// The baseline runs the original content through the same heuristic
	// strategy as the masked view, so metric deltas reflect removed text
	// rather than a strategy mismatch against the AST path.
	base := d.registry.Extract(rep.Content, rep.FilePath, "generic").Structural

	metrics := [][2]int{
		{base.Complexity, masked.Structural.Complexity},
		{base.NestingDepth, masked.Structural.NestingDepth},
		{base.FunctionCount, masked.Structural.FunctionCount},
		{base.ClassCount, masked.Structural.ClassCount},
	}

	total := 0.0
	for _, m := range metrics {
		total += metricSimilarity(m[0], m[1])
	}
	score := 1.0 - total/float64(len(metrics))

	return clamp01(score)
}

// Mask returns a copy of the representation with docstrings and comments
// emptied and every identifier replaced by the placeholder token. The
// original is never modified; structural features of the masked copy are
// re-extracted from the masked content, never zeroed.
func (d *Detector) Mask(rep *types.CodeRepresentation) *types.CodeRepresentation {
	masked := rep.Clone()

	maskedContent := maskContent(rep.Content, rep.Textual)
	masked.Content = maskedContent
	masked.Textual.Docstrings = []string{}
	masked.Textual.Comments = []string{}
	masked.Textual.Identifiers = placeholders(len(rep.Textual.Identifiers))
	masked.Textual.VariableNames = placeholders(len(rep.Textual.VariableNames))

	// Re-derive structure from the de-texted view. The heuristic strategy is
	// used on purpose: masked content is no longer parseable source.
	res := d.registry.Extract(maskedContent, rep.FilePath+".masked", "generic")
	masked.Structural = res.Structural

	return masked
}

// Indicators reports the discrete textual-dependence signals for a
// representation. Each indicator fires independently at a fixed threshold.
func (d *Detector) Indicators(rep *types.CodeRepresentation) []types.BiasIndicator {
	indicators := make([]types.BiasIndicator, 0, 3)
	contentLen := len(rep.Content)
	if contentLen == 0 {
		return indicators
	}

	docRatio := float64(totalChars(rep.Textual.Docstrings)) / float64(contentLen)
	if docRatio > DocstringRatioThreshold {
		indicators = append(indicators, types.BiasIndicator{
			Type:        IndicatorDocstring,
			Severity:    clamp01(docRatio),
			Description: fmt.Sprintf("docstrings make up %.0f%% of file content", docRatio*100),
		})
	}

	if score := identifierComplexityScore(rep.Textual); score > IdentifierScoreThreshold {
		indicators = append(indicators, types.BiasIndicator{
			Type:        IndicatorIdentifier,
			Severity:    clamp01(score),
			Description: "identifiers are long or heavily descriptive",
		})
	}

	commentRatio := float64(totalChars(rep.Textual.Comments)) / float64(contentLen)
	if commentRatio > CommentRatioThreshold {
		indicators = append(indicators, types.BiasIndicator{
			Type:        IndicatorComment,
			Severity:    clamp01(commentRatio),
			Description: fmt.Sprintf("comments make up %.0f%% of file content", commentRatio*100),
		})
	}

	return indicators
}

// metricSimilarity computes 1 - |a-b| / max(a,b,1).
func metricSimilarity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	max := a
	if b > max {
		max = b
	}
	if max < 1 {
		max = 1
	}
	return 1.0 - float64(diff)/float64(max)
}

// identifierComplexityScore blends average identifier length (normalized to
// 20 chars) with the fraction of identifiers that look descriptive
// (underscores, camelCase, or longer than 8 chars).
func identifierComplexityScore(tf types.TextualFeatures) float64 {
	ids := append(append([]string{}, tf.Identifiers...), tf.VariableNames...)
	if len(ids) == 0 {
		return 0
	}

	totalLen := 0
	descriptive := 0
	for _, id := range ids {
		totalLen += len(id)
		if strings.Contains(id, "_") || isCamelCase(id) || len(id) > 8 {
			descriptive++
		}
	}

	avgLen := float64(totalLen) / float64(len(ids))
	lengthScore := avgLen / identifierLengthNormalizer
	if lengthScore > 1 {
		lengthScore = 1
	}
	descriptiveScore := float64(descriptive) / float64(len(ids))

	return 0.5*lengthScore + 0.5*descriptiveScore
}

var camelPattern = regexp.MustCompile(`[a-z][A-Z]`)

func isCamelCase(id string) bool {
	return camelPattern.MatchString(id)
}

// maskContent strips comment lines and replaces every known identifier with
// the placeholder token, leaving layout and control keywords intact.
func maskContent(content string, tf types.TextualFeatures) string {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*") ||
			strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			kept = append(kept, "")
			continue
		}
		kept = append(kept, stripTrailingComment(line))
	}
	masked := strings.Join(kept, "\n")

	names := map[string]bool{}
	for _, id := range tf.Identifiers {
		names[id] = true
	}
	for _, id := range tf.VariableNames {
		names[id] = true
	}
	for name := range names {
		if len(name) < 2 {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
		if err != nil {
			continue
		}
		masked = re.ReplaceAllString(masked, PlaceholderToken)
	}

	return masked
}

// stripTrailingComment drops a trailing line comment, keeping the code
// before it. A "//" directly after ':' is treated as a URL, not a comment.
func stripTrailingComment(line string) string {
	for _, marker := range []string{"//", "#"} {
		idx := strings.Index(line, marker)
		if idx <= 0 {
			continue
		}
		if marker == "//" && line[idx-1] == ':' {
			continue
		}
		return strings.TrimRight(line[:idx], " \t")
	}
	return line
}

func placeholders(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = PlaceholderToken
	}
	return out
}

func totalChars(ss []string) int {
	n := 0
	for _, s := range ss {
		n += len(s)
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
