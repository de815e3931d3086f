package extractor

import (
	"path/filepath"
	"strings"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// Result is the output of feature extraction for one file.
type Result struct {
	Textual       types.TextualFeatures
	Structural    types.StructuralFeatures
	Relationships types.RelationshipSet
}

// LanguageExtractor extracts features from source text for one language
// capability. Implementations may fail; the Registry handles fallback.
type LanguageExtractor interface {
	// Name identifies the extraction strategy ("ast", "regex", "generic").
	Name() string

	// Extract parses content and returns textual, structural, and
	// relationship features. filePath is the absolute repository-relative
	// path of the file, used to resolve relative imports.
	Extract(content, filePath string) (*Result, error)
}

// Registry dispatches extraction by normalized file extension and guarantees
// a non-nil result: an AST failure falls back to the regex path, a regex
// failure falls back to the generic path, and a generic failure yields
// zero-valued features.
type Registry struct {
	byExt    map[string]LanguageExtractor
	fallback LanguageExtractor
	generic  LanguageExtractor
}

// NewRegistry creates a Registry with the default language table:
// Go files use AST extraction, script languages use regex extraction,
// and everything else uses generic pattern matching.
func NewRegistry() *Registry {
	regex := newRegexExtractor()
	generic := newGenericExtractor()

	byExt := map[string]LanguageExtractor{
		".go": newGoExtractor(),
	}
	for _, ext := range []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs", ".py"} {
		byExt[ext] = regex
	}

	return &Registry{
		byExt:    byExt,
		fallback: regex,
		generic:  generic,
	}
}

// Extract runs the extraction pipeline for a file. languageHint, when set,
// overrides the file extension for dispatch (e.g. "go", "python").
// Extract never fails: malformed input degrades to heuristic features.
func (r *Registry) Extract(content, filePath, languageHint string) *Result {
	ext := normalizeExtension(filePath, languageHint)

	primary, ok := r.byExt[ext]
	if !ok {
		primary = r.generic
	}

	if res := r.tryExtract(primary, content, filePath); res != nil {
		return res
	}
	if primary != r.fallback && primary != r.generic {
		if res := r.tryExtract(r.fallback, content, filePath); res != nil {
			return res
		}
	}
	if res := r.tryExtract(r.generic, content, filePath); res != nil {
		return res
	}

	// Even the generic path failed: return zero-valued, non-nil features.
	return emptyResult()
}

// tryExtract runs one extractor, converting panics on malformed input into
// a fallback signal.
func (r *Registry) tryExtract(ex LanguageExtractor, content, filePath string) (res *Result) {
	defer func() {
		if recover() != nil {
			res = nil
		}
	}()

	res, err := ex.Extract(content, filePath)
	if err != nil || res == nil {
		return nil
	}
	if res.Structural.Complexity < 1 {
		res.Structural.Complexity = 1
	}
	return res
}

// StrategyFor reports which extraction strategy handles the given path.
func (r *Registry) StrategyFor(filePath, languageHint string) string {
	ext := normalizeExtension(filePath, languageHint)
	if ex, ok := r.byExt[ext]; ok {
		return ex.Name()
	}
	return r.generic.Name()
}

// normalizeExtension lowercases the extension and maps language hints to
// canonical extensions.
func normalizeExtension(filePath, languageHint string) string {
	switch strings.ToLower(languageHint) {
	case "go", "golang":
		return ".go"
	case "javascript", "js":
		return ".js"
	case "typescript", "ts":
		return ".ts"
	case "python", "py":
		return ".py"
	case "generic":
		// Unmapped on purpose: forces the heuristic scanner regardless of
		// the file's extension.
		return ""
	}
	return strings.ToLower(filepath.Ext(filePath))
}

// emptyResult returns the zero-valued feature set used when all extraction
// strategies fail. Complexity stays at its floor of 1.
func emptyResult() *Result {
	return &Result{
		Textual: types.TextualFeatures{
			Docstrings:    []string{},
			Comments:      []string{},
			Identifiers:   []string{},
			VariableNames: []string{},
		},
		Structural: types.StructuralFeatures{Complexity: 1},
	}
}

// resolveImportPath canonicalizes an import specifier. Paths starting with
// "./" or "../" are resolved against the importing file's directory; all
// other specifiers are external module identifiers and kept verbatim.
func resolveImportPath(spec, fromFile string) (resolved string, local bool) {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return spec, false
	}
	dir := filepath.Dir(fromFile)
	joined := filepath.Clean(filepath.Join(dir, spec))
	return filepath.ToSlash(joined), true
}
