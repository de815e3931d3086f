package extractor

import (
	"regexp"
	"strings"
)

// genericExtractor is the last-resort strategy for languages without a
// dedicated extractor. It produces coarse textual and structural features
// and no relationships.
type genericExtractor struct {
	identifier *regexp.Regexp
	defLine    *regexp.Regexp
	classLine  *regexp.Regexp
}

func newGenericExtractor() *genericExtractor {
	return &genericExtractor{
		identifier: regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]{2,}\b`),
		defLine:    regexp.MustCompile(`\b(?:func|function|def|fn|sub|proc)\s+(\w+)`),
		classLine:  regexp.MustCompile(`\b(?:class|struct|interface|trait|module)\s+(\w+)`),
	}
}

func (g *genericExtractor) Name() string { return "generic" }

func (g *genericExtractor) Extract(content, filePath string) (*Result, error) {
	res := emptyResult()
	lines := strings.Split(content, "\n")

	seen := map[string]bool{}
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if isCommentLine(trimmed) {
			res.Textual.Comments = append(res.Textual.Comments, trimComment(trimmed))
			continue
		}

		if m := g.defLine.FindStringSubmatch(trimmed); m != nil {
			res.Structural.FunctionCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[1])
		}
		if m := g.classLine.FindStringSubmatch(trimmed); m != nil {
			res.Structural.ClassCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[1])
		}

		for _, id := range g.identifier.FindAllString(trimmed, -1) {
			if isKeyword(id) || seen[id] {
				continue
			}
			seen[id] = true
			res.Textual.VariableNames = append(res.Textual.VariableNames, id)
		}

		res.Structural.Complexity += countBranches(trimmed)
		res.Structural.NodeCount += len(strings.Fields(trimmed))
	}

	res.Structural.NestingDepth = maxIndentDepth(lines)
	if res.Structural.Complexity < 1 {
		res.Structural.Complexity = 1
	}
	return res, nil
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "--") || strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, ";")
}

func trimComment(trimmed string) string {
	for _, p := range []string{"//", "#", "--", "/*", "*", ";"} {
		if strings.HasPrefix(trimmed, p) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, p), "*/"))
		}
	}
	return trimmed
}

var genericKeywords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true, "struct": true,
	"interface": true, "return": true, "import": true, "from": true, "package": true,
	"const": true, "var": true, "let": true, "for": true, "while": true, "else": true,
	"elif": true, "switch": true, "case": true, "break": true, "continue": true,
	"true": true, "false": true, "nil": true, "null": true, "None": true,
	"public": true, "private": true, "static": true, "void": true, "int": true,
	"string": true, "bool": true, "float": true, "type": true, "new": true,
}

func isKeyword(id string) bool {
	return genericKeywords[id]
}
