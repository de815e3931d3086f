package extractor

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// regexExtractor is the regex-based strategy for JavaScript, TypeScript,
// and Python source files. It is also the fallback when AST parsing fails.
type regexExtractor struct {
	jsImportNamed     *regexp.Regexp
	jsImportNamespace *regexp.Regexp
	jsImportDefault   *regexp.Regexp
	jsImportBare      *regexp.Regexp
	jsRequire         *regexp.Regexp
	jsImportDynamic   *regexp.Regexp
	jsExportNamed     *regexp.Regexp
	jsExportDefault   *regexp.Regexp
	jsExportList      *regexp.Regexp
	jsClass           *regexp.Regexp
	jsFunction        *regexp.Regexp
	jsArrowFn         *regexp.Regexp
	jsVar             *regexp.Regexp
	call              *regexp.Regexp

	pyImport     *regexp.Regexp
	pyFromImport *regexp.Regexp
	pyDef        *regexp.Regexp
	pyClass      *regexp.Regexp
	pyAssign     *regexp.Regexp
}

func newRegexExtractor() *regexExtractor {
	return &regexExtractor{
		jsImportNamed:     regexp.MustCompile(`^\s*import\s+(?:type\s+)?\{([^}]*)\}\s*from\s*['"]([^'"]+)['"]`),
		jsImportNamespace: regexp.MustCompile(`^\s*import\s+\*\s+as\s+([\w$]+)\s+from\s+['"]([^'"]+)['"]`),
		jsImportDefault:   regexp.MustCompile(`^\s*import\s+([\w$]+)\s*(?:,\s*\{[^}]*\})?\s*from\s+['"]([^'"]+)['"]`),
		jsImportBare:      regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`),
		jsRequire:         regexp.MustCompile(`(?:const|let|var)\s+([\w$]+)\s*=\s*require\(\s*['"]([^'"]+)['"]`),
		jsImportDynamic:   regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]`),
		jsExportNamed:     regexp.MustCompile(`^\s*export\s+(?:async\s+)?(?:const|let|var|function\*?|class|interface|type|enum)\s+([\w$]+)`),
		jsExportDefault:   regexp.MustCompile(`^\s*export\s+default\s+(?:async\s+)?(?:function\*?\s+|class\s+)?([\w$]*)`),
		jsExportList:      regexp.MustCompile(`^\s*export\s+\{([^}]*)\}`),
		jsClass:           regexp.MustCompile(`\bclass\s+([\w$]+)(?:\s+extends\s+([\w$.]+))?(?:\s+implements\s+([\w$.,\s]+))?`),
		jsFunction:        regexp.MustCompile(`\bfunction\*?\s+([\w$]+)\s*\(`),
		jsArrowFn:         regexp.MustCompile(`(?:const|let|var)\s+([\w$]+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[\w$]+)\s*=>`),
		jsVar:             regexp.MustCompile(`^\s*(?:const|let|var)\s+([\w$]+)`),
		call:              regexp.MustCompile(`(\bnew\s+|\bawait\s+)?([\w$]+(?:\.[\w$]+)*)\s*\(`),

		pyImport:     regexp.MustCompile(`^\s*import\s+([\w.]+)(?:\s+as\s+(\w+))?`),
		pyFromImport: regexp.MustCompile(`^\s*from\s+([\w.]+|\.+[\w.]*)\s+import\s+(.+)`),
		pyDef:        regexp.MustCompile(`^(\s*)(?:async\s+)?def\s+(\w+)\s*\(`),
		pyClass:      regexp.MustCompile(`^(\s*)class\s+(\w+)\s*(?:\(([^)]*)\))?\s*:`),
		pyAssign:     regexp.MustCompile(`^\s*(\w+)\s*=[^=]`),
	}
}

func (x *regexExtractor) Name() string { return "regex" }

func (x *regexExtractor) Extract(content, filePath string) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".py" {
		return x.extractPython(content, filePath), nil
	}
	return x.extractScript(content, filePath), nil
}

// scopeFrame tracks an enclosing function definition for call context.
type scopeFrame struct {
	name   string
	indent int
}

// extractScript handles JavaScript and TypeScript sources line by line.
func (x *regexExtractor) extractScript(content, filePath string) *Result {
	res := emptyResult()
	lines := strings.Split(content, "\n")

	var scopes []scopeFrame
	inBlockComment := false

	for i, raw := range lines {
		lineNo := i + 1
		line := raw
		indent := indentOf(raw)
		trimmed := strings.TrimSpace(line)

		// Pop scopes that closed at shallower indentation.
		for len(scopes) > 0 && trimmed != "" && indent <= scopes[len(scopes)-1].indent && !strings.HasPrefix(trimmed, "}") {
			if looksLikeDefinition(trimmed) || strings.HasPrefix(trimmed, "return") {
				scopes = scopes[:len(scopes)-1]
				continue
			}
			break
		}

		// Comments and docstrings.
		if inBlockComment {
			if idx := strings.Index(trimmed, "*/"); idx >= 0 {
				inBlockComment = false
			}
			continue
		}
		if strings.HasPrefix(trimmed, "/**") {
			doc, closed := collectBlock(lines, i)
			res.Textual.Docstrings = append(res.Textual.Docstrings, doc)
			inBlockComment = !closed
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			doc, closed := collectBlock(lines, i)
			res.Textual.Comments = append(res.Textual.Comments, doc)
			inBlockComment = !closed
			continue
		}
		if strings.HasPrefix(trimmed, "//") {
			res.Textual.Comments = append(res.Textual.Comments, strings.TrimSpace(strings.TrimPrefix(trimmed, "//")))
			continue
		}

		x.scanImports(res, line, filePath, lineNo)
		x.scanExports(res, line, filePath, lineNo)

		// Definitions.
		if m := x.jsClass.FindStringSubmatch(line); m != nil {
			res.Structural.ClassCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[1])
			if m[2] != "" {
				res.Relationships.Inheritance = append(res.Relationships.Inheritance, types.InheritanceRelation{
					From: filePath, To: m[2], Type: types.InheritExtends, LineNumber: lineNo,
				})
			}
			if m[3] != "" {
				for _, iface := range strings.Split(m[3], ",") {
					iface = strings.TrimSpace(iface)
					if iface == "" {
						continue
					}
					res.Relationships.Inheritance = append(res.Relationships.Inheritance, types.InheritanceRelation{
						From: filePath, To: iface, Type: types.InheritImplements, LineNumber: lineNo,
					})
				}
			}
		}
		declared := false
		if m := x.jsFunction.FindStringSubmatch(line); m != nil {
			res.Structural.FunctionCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[1])
			scopes = append(scopes, scopeFrame{name: m[1], indent: indent})
			declared = true
		} else if m := x.jsArrowFn.FindStringSubmatch(line); m != nil {
			res.Structural.FunctionCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[1])
			scopes = append(scopes, scopeFrame{name: m[1], indent: indent})
		} else if m := x.jsVar.FindStringSubmatch(line); m != nil {
			res.Textual.VariableNames = append(res.Textual.VariableNames, m[1])
		}

		if !declared {
			x.scanCalls(res, line, filePath, lineNo, currentScope(scopes))
		}
		res.Structural.Complexity += countBranches(trimmed)
		res.Structural.NodeCount += len(strings.Fields(trimmed))
	}

	res.Structural.NestingDepth = maxIndentDepth(lines)
	if res.Structural.Complexity < 1 {
		res.Structural.Complexity = 1
	}
	return res
}

// scanImports records every import form found on the line.
func (x *regexExtractor) scanImports(res *Result, line, filePath string, lineNo int) {
	addImport := func(spec string, symbols []string, it types.ImportType) {
		resolved, local := resolveImportPath(spec, filePath)
		res.Relationships.Imports = append(res.Relationships.Imports, types.ImportRelation{
			From: filePath, To: resolved, Symbols: symbols, ImportType: it, LineNumber: lineNo,
		})
		depType := types.DependencyPackage
		if local {
			depType = types.DependencyLocal
		}
		res.Relationships.Dependencies = append(res.Relationships.Dependencies, types.DependencyRelation{
			From: filePath, To: resolved, DependencyType: depType, Usage: symbols,
		})
	}

	if m := x.jsImportNamespace.FindStringSubmatch(line); m != nil {
		addImport(m[2], []string{m[1]}, types.ImportNamespace)
		return
	}
	if m := x.jsImportNamed.FindStringSubmatch(line); m != nil {
		addImport(m[2], splitSymbols(m[1]), types.ImportNamed)
		return
	}
	if m := x.jsImportDefault.FindStringSubmatch(line); m != nil {
		addImport(m[2], []string{m[1]}, types.ImportDefault)
		return
	}
	if m := x.jsImportBare.FindStringSubmatch(line); m != nil {
		addImport(m[1], nil, types.ImportDefault)
		return
	}
	if m := x.jsRequire.FindStringSubmatch(line); m != nil {
		addImport(m[2], []string{m[1]}, types.ImportDefault)
		return
	}
	if m := x.jsImportDynamic.FindStringSubmatch(line); m != nil {
		addImport(m[1], nil, types.ImportDynamic)
	}
}

func (x *regexExtractor) scanExports(res *Result, line, filePath string, lineNo int) {
	if m := x.jsExportDefault.FindStringSubmatch(line); m != nil {
		symbol := m[1]
		if symbol == "" {
			symbol = "default"
		}
		res.Relationships.Exports = append(res.Relationships.Exports, types.ExportRelation{
			From: filePath, Symbol: symbol, ExportType: types.ExportDefault, LineNumber: lineNo,
		})
		return
	}
	if m := x.jsExportNamed.FindStringSubmatch(line); m != nil {
		res.Relationships.Exports = append(res.Relationships.Exports, types.ExportRelation{
			From: filePath, Symbol: m[1], ExportType: types.ExportNamed, LineNumber: lineNo,
		})
		return
	}
	if m := x.jsExportList.FindStringSubmatch(line); m != nil {
		for _, sym := range splitSymbols(m[1]) {
			res.Relationships.Exports = append(res.Relationships.Exports, types.ExportRelation{
				From: filePath, Symbol: sym, ExportType: types.ExportNamed, LineNumber: lineNo,
			})
		}
	}
}

// scanCalls records call sites with the enclosing function as context.
func (x *regexExtractor) scanCalls(res *Result, line, filePath string, lineNo int, context string) {
	for _, m := range x.call.FindAllStringSubmatch(line, -1) {
		target := m[2]
		switch target {
		case "if", "for", "while", "switch", "catch", "function", "return", "import", "require", "super":
			continue
		}

		rel := types.CallRelation{
			From: filePath, CallType: types.CallDirect, Context: context, LineNumber: lineNo,
		}
		prefix := strings.TrimSpace(m[1])
		if idx := strings.LastIndex(target, "."); idx >= 0 {
			rel.Object = target[:idx]
			rel.To = target[idx+1:]
			rel.CallType = types.CallMethod
		} else {
			rel.To = target
		}
		switch prefix {
		case "new":
			rel.CallType = types.CallConstructor
		case "await":
			rel.CallType = types.CallAsync
		}

		res.Relationships.Calls = append(res.Relationships.Calls, rel)
	}
}

// extractPython handles Python sources line by line.
func (x *regexExtractor) extractPython(content, filePath string) *Result {
	res := emptyResult()
	lines := strings.Split(content, "\n")

	var scopes []scopeFrame
	inDocstring := false
	var docBuf []string

	for i, raw := range lines {
		lineNo := i + 1
		indent := indentOf(raw)
		trimmed := strings.TrimSpace(raw)

		if inDocstring {
			if strings.Contains(trimmed, `"""`) || strings.Contains(trimmed, "'''") {
				inDocstring = false
				res.Textual.Docstrings = append(res.Textual.Docstrings, strings.Join(docBuf, "\n"))
				docBuf = nil
			} else {
				docBuf = append(docBuf, trimmed)
			}
			continue
		}
		if strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "'''") {
			quote := trimmed[:3]
			body := strings.TrimPrefix(trimmed, quote)
			if strings.Contains(body, quote) {
				res.Textual.Docstrings = append(res.Textual.Docstrings, strings.TrimSuffix(body, quote))
			} else {
				inDocstring = true
				if body != "" {
					docBuf = append(docBuf, body)
				}
			}
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			res.Textual.Comments = append(res.Textual.Comments, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			continue
		}

		for len(scopes) > 0 && trimmed != "" && indent <= scopes[len(scopes)-1].indent {
			scopes = scopes[:len(scopes)-1]
		}

		if m := x.pyFromImport.FindStringSubmatch(raw); m != nil {
			spec := pythonModuleToPath(m[1])
			symbols := splitSymbols(m[2])
			resolved, local := resolveImportPath(spec, filePath)
			res.Relationships.Imports = append(res.Relationships.Imports, types.ImportRelation{
				From: filePath, To: resolved, Symbols: symbols, ImportType: types.ImportNamed, LineNumber: lineNo,
			})
			depType := types.DependencyPackage
			if local {
				depType = types.DependencyLocal
			}
			res.Relationships.Dependencies = append(res.Relationships.Dependencies, types.DependencyRelation{
				From: filePath, To: resolved, DependencyType: depType, Usage: symbols,
			})
		} else if m := x.pyImport.FindStringSubmatch(raw); m != nil {
			res.Relationships.Imports = append(res.Relationships.Imports, types.ImportRelation{
				From: filePath, To: m[1], ImportType: types.ImportDefault, LineNumber: lineNo,
			})
			res.Relationships.Dependencies = append(res.Relationships.Dependencies, types.DependencyRelation{
				From: filePath, To: m[1], DependencyType: types.DependencyPackage,
			})
		}

		declared := false
		if m := x.pyDef.FindStringSubmatch(raw); m != nil {
			res.Structural.FunctionCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[2])
			scopes = append(scopes, scopeFrame{name: m[2], indent: indent})
			declared = true
		} else if m := x.pyClass.FindStringSubmatch(raw); m != nil {
			res.Structural.ClassCount++
			res.Textual.Identifiers = append(res.Textual.Identifiers, m[2])
			declared = true
			for _, base := range splitSymbols(m[3]) {
				if base == "object" {
					continue
				}
				res.Relationships.Inheritance = append(res.Relationships.Inheritance, types.InheritanceRelation{
					From: filePath, To: base, Type: types.InheritExtends, LineNumber: lineNo,
				})
			}
		} else if m := x.pyAssign.FindStringSubmatch(raw); m != nil {
			res.Textual.VariableNames = append(res.Textual.VariableNames, m[1])
		}

		if !declared {
			x.scanCalls(res, raw, filePath, lineNo, currentScope(scopes))
		}
		res.Structural.Complexity += countBranches(trimmed)
		res.Structural.NodeCount += len(strings.Fields(trimmed))
	}

	res.Structural.NestingDepth = maxIndentDepth(lines)
	if res.Structural.Complexity < 1 {
		res.Structural.Complexity = 1
	}
	return res
}

// pythonModuleToPath maps a Python module specifier to an import path,
// turning relative dots into filesystem-style prefixes.
func pythonModuleToPath(mod string) string {
	if !strings.HasPrefix(mod, ".") {
		return mod
	}
	dots := 0
	for dots < len(mod) && mod[dots] == '.' {
		dots++
	}
	rest := strings.ReplaceAll(mod[dots:], ".", "/")
	prefix := "./"
	for i := 1; i < dots; i++ {
		prefix = "../" + strings.TrimPrefix(prefix, "./")
	}
	return prefix + rest
}

func currentScope(scopes []scopeFrame) string {
	if len(scopes) == 0 {
		return "global"
	}
	return scopes[len(scopes)-1].name
}

func looksLikeDefinition(trimmed string) bool {
	return strings.HasPrefix(trimmed, "function") || strings.HasPrefix(trimmed, "class") ||
		strings.HasPrefix(trimmed, "const") || strings.HasPrefix(trimmed, "let") ||
		strings.HasPrefix(trimmed, "var") || strings.HasPrefix(trimmed, "export")
}

// collectBlock gathers a /* ... */ comment starting at line i.
func collectBlock(lines []string, i int) (text string, closed bool) {
	var buf []string
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimPrefix(line, "/*")
		done := strings.Contains(line, "*/")
		line = strings.TrimSuffix(strings.TrimSpace(strings.TrimSuffix(line, "*/")), "*")
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if line != "" {
			buf = append(buf, line)
		}
		if done {
			return strings.Join(buf, "\n"), true
		}
	}
	return strings.Join(buf, "\n"), false
}

func splitSymbols(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		// Drop aliases: "foo as bar" keeps foo.
		if idx := strings.Index(s, " as "); idx >= 0 {
			s = s[:idx]
		}
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func indentOf(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

// maxIndentDepth estimates nesting depth from indentation, using the
// smallest nonzero indent step as the unit.
func maxIndentDepth(lines []string) int {
	unit := 0
	maxIndent := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		ind := indentOf(line)
		if ind > 0 && (unit == 0 || ind < unit) {
			unit = ind
		}
		if ind > maxIndent {
			maxIndent = ind
		}
	}
	if unit == 0 {
		return 0
	}
	return maxIndent / unit
}

// countBranches counts branching constructs on one line.
func countBranches(trimmed string) int {
	count := 0
	for _, kw := range []string{"if ", "if(", "elif ", "else if", "for ", "for(", "while ", "while(", "case ", "catch ", "catch(", "except "} {
		if strings.HasPrefix(trimmed, kw) {
			count++
			break
		}
	}
	count += strings.Count(trimmed, "&&")
	count += strings.Count(trimmed, "||")
	count += strings.Count(trimmed, " and ")
	count += strings.Count(trimmed, " or ")
	return count
}
