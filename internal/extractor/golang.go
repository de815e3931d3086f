package extractor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/mdevan/debias-mcp/pkg/types"
)

// goExtractor is the AST-based strategy for Go source files.
type goExtractor struct{}

func newGoExtractor() *goExtractor {
	return &goExtractor{}
}

func (g *goExtractor) Name() string { return "ast" }

// Extract parses the file with go/parser and walks the AST once, collecting
// textual, structural, and relationship features in a single traversal.
func (g *goExtractor) Extract(content, filePath string) (*Result, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filePath, content, parser.ParseComments)
	if err != nil || file == nil {
		// Malformed Go source falls back to the heuristic path.
		return nil, err
	}

	w := &goWalker{
		fset:       fset,
		filePath:   filePath,
		result:     emptyResult(),
		asyncCalls: map[*ast.CallExpr]bool{},
	}

	w.collectComments(file)
	w.collectImports(file)

	for _, decl := range file.Decls {
		w.walkDecl(decl)
	}

	w.result.Structural.Complexity += 1 // baseline
	return w.result, nil
}

// goWalker accumulates features during a single AST traversal.
type goWalker struct {
	fset     *token.FileSet
	filePath string
	result   *Result

	// current enclosing function name, "global" at top level
	context string

	// calls already recorded as async via their go statement
	asyncCalls map[*ast.CallExpr]bool
}

func (w *goWalker) line(pos token.Pos) int {
	return w.fset.Position(pos).Line
}

// collectComments separates doc comments (attached to declarations) from
// free-standing comments.
func (w *goWalker) collectComments(file *ast.File) {
	docs := map[*ast.CommentGroup]bool{}
	if file.Doc != nil {
		docs[file.Doc] = true
	}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Doc != nil {
				docs[d.Doc] = true
			}
		case *ast.GenDecl:
			if d.Doc != nil {
				docs[d.Doc] = true
			}
		}
	}

	for _, cg := range file.Comments {
		text := strings.TrimSpace(cg.Text())
		if text == "" {
			continue
		}
		if docs[cg] {
			w.result.Textual.Docstrings = append(w.result.Textual.Docstrings, text)
		} else {
			w.result.Textual.Comments = append(w.result.Textual.Comments, text)
		}
	}
}

// collectImports records import and dependency relations. Go import paths
// are module identifiers, never relative, so they are stored verbatim.
func (w *goWalker) collectImports(file *ast.File) {
	for _, imp := range file.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		line := w.line(imp.Pos())

		importType := types.ImportDefault
		var symbols []string
		if imp.Name != nil {
			symbols = []string{imp.Name.Name}
			importType = types.ImportNamed
			if imp.Name.Name == "." {
				importType = types.ImportNamespace
			}
		}

		w.result.Relationships.Imports = append(w.result.Relationships.Imports, types.ImportRelation{
			From:       w.filePath,
			To:         path,
			Symbols:    symbols,
			ImportType: importType,
			LineNumber: line,
		})

		depType := types.DependencyPackage
		if !strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
			depType = types.DependencyBuiltin
		}
		w.result.Relationships.Dependencies = append(w.result.Relationships.Dependencies, types.DependencyRelation{
			From:           w.filePath,
			To:             path,
			DependencyType: depType,
		})
	}
}

func (w *goWalker) walkDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		w.walkFunc(d)
	case *ast.GenDecl:
		w.walkGenDecl(d)
	}
}

func (w *goWalker) walkFunc(fn *ast.FuncDecl) {
	name := fn.Name.Name
	w.result.Structural.FunctionCount++
	w.result.Textual.Identifiers = append(w.result.Textual.Identifiers, name)
	w.maybeExport(name, w.line(fn.Pos()))

	prev := w.context
	w.context = name
	if fn.Body != nil {
		w.walkNode(fn.Body, 1)
	}
	w.context = prev
}

func (w *goWalker) walkGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			w.walkTypeSpec(s)
		case *ast.ValueSpec:
			for _, n := range s.Names {
				w.result.Textual.VariableNames = append(w.result.Textual.VariableNames, n.Name)
				w.maybeExport(n.Name, w.line(n.Pos()))
			}
			for _, v := range s.Values {
				w.walkNode(v, 1)
			}
		}
	}
}

func (w *goWalker) walkTypeSpec(spec *ast.TypeSpec) {
	name := spec.Name.Name
	w.result.Textual.Identifiers = append(w.result.Textual.Identifiers, name)
	w.maybeExport(name, w.line(spec.Pos()))

	switch t := spec.Type.(type) {
	case *ast.StructType:
		w.result.Structural.ClassCount++
		w.walkEmbedded(name, t.Fields, types.InheritExtends)
		w.collectFieldNames(t.Fields)
	case *ast.InterfaceType:
		w.result.Structural.ClassCount++
		w.walkEmbedded(name, t.Methods, types.InheritExtends)
	}
	w.walkNode(spec.Type, 1)
}

// walkEmbedded records embedded struct/interface entries as inheritance.
func (w *goWalker) walkEmbedded(typeName string, fields *ast.FieldList, kind types.InheritanceType) {
	if fields == nil {
		return
	}
	for _, f := range fields.List {
		if len(f.Names) != 0 {
			continue
		}
		if base := typeExprName(f.Type); base != "" {
			w.result.Relationships.Inheritance = append(w.result.Relationships.Inheritance, types.InheritanceRelation{
				From:       w.filePath,
				To:         base,
				Type:       kind,
				LineNumber: w.line(f.Pos()),
			})
		}
	}
}

func (w *goWalker) collectFieldNames(fields *ast.FieldList) {
	if fields == nil {
		return
	}
	for _, f := range fields.List {
		for _, n := range f.Names {
			w.result.Textual.VariableNames = append(w.result.Textual.VariableNames, n.Name)
		}
	}
}

func (w *goWalker) maybeExport(name string, line int) {
	if !token.IsExported(name) {
		return
	}
	w.result.Relationships.Exports = append(w.result.Relationships.Exports, types.ExportRelation{
		From:       w.filePath,
		Symbol:     name,
		ExportType: types.ExportNamed,
		LineNumber: line,
	})
}

// walkNode traverses a subtree, tracking nesting depth and counting
// branching constructs, calls, and declared variables.
func (w *goWalker) walkNode(node ast.Node, depth int) {
	if node == nil {
		return
	}
	if depth > w.result.Structural.NestingDepth {
		w.result.Structural.NestingDepth = depth
	}

	ast.Inspect(node, func(n ast.Node) bool {
		if n == nil {
			return false
		}
		w.result.Structural.NodeCount++

		switch v := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause,
			*ast.CommClause, *ast.SelectStmt:
			w.result.Structural.Complexity++
		case *ast.BinaryExpr:
			if v.Op == token.LAND || v.Op == token.LOR {
				w.result.Structural.Complexity++
			}
		case *ast.BlockStmt:
			// Nested blocks deepen the tree; measure them explicitly since
			// Inspect does not expose depth.
			for _, stmt := range v.List {
				w.measureDepth(stmt, depth+1)
			}
		case *ast.CallExpr:
			if !w.asyncCalls[v] {
				w.recordCall(v, false)
			}
		case *ast.GoStmt:
			w.asyncCalls[v.Call] = true
			w.recordCall(v.Call, true)
			return true
		case *ast.AssignStmt:
			if v.Tok == token.DEFINE {
				for _, lhs := range v.Lhs {
					if id, ok := lhs.(*ast.Ident); ok && id.Name != "_" {
						w.result.Textual.VariableNames = append(w.result.Textual.VariableNames, id.Name)
					}
				}
			}
		case *ast.FuncLit:
			w.result.Structural.FunctionCount++
		}
		return true
	})
}

// measureDepth walks statements only to track maximum nesting.
func (w *goWalker) measureDepth(node ast.Node, depth int) {
	if node == nil {
		return
	}
	if depth > w.result.Structural.NestingDepth {
		w.result.Structural.NestingDepth = depth
	}
	ast.Inspect(node, func(n ast.Node) bool {
		if block, ok := n.(*ast.BlockStmt); ok && n != node {
			for _, stmt := range block.List {
				w.measureDepth(stmt, depth+1)
			}
			return false
		}
		return true
	})
}

// recordCall records one call site with its enclosing function context.
func (w *goWalker) recordCall(call *ast.CallExpr, async bool) {
	ctx := w.context
	if ctx == "" {
		ctx = "global"
	}

	rel := types.CallRelation{
		From:       w.filePath,
		CallType:   types.CallDirect,
		Context:    ctx,
		LineNumber: w.line(call.Pos()),
	}
	if async {
		rel.CallType = types.CallAsync
	}

	switch fn := call.Fun.(type) {
	case *ast.Ident:
		rel.To = fn.Name
	case *ast.SelectorExpr:
		rel.To = fn.Sel.Name
		rel.Object = typeExprName(fn.X)
		if !async {
			rel.CallType = types.CallMethod
		}
	default:
		return
	}

	w.result.Relationships.Calls = append(w.result.Relationships.Calls, rel)
}

// typeExprName extracts a printable name from a type or receiver expression.
func typeExprName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return typeExprName(t.X)
	case *ast.SelectorExpr:
		base := typeExprName(t.X)
		if base == "" {
			return t.Sel.Name
		}
		return base + "." + t.Sel.Name
	case *ast.IndexExpr:
		return typeExprName(t.X)
	}
	return ""
}
