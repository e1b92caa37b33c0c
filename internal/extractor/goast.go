package extractor

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/dshills/codegraph-mcp/pkg/types"
)

// SyntaxExtractor locates Go methods from the syntax tree and everything
// else with the signature patterns
type SyntaxExtractor struct{}

// NewSyntaxExtractor creates a new syntax-aware extractor
func NewSyntaxExtractor() *SyntaxExtractor {
	return &SyntaxExtractor{}
}

// Extract derives features for path like PatternExtractor, except that a Go
// file which parses gets exact method spans
func (e *SyntaxExtractor) Extract(path, content string, lang types.Language) Features {
	return extract(path, content, lang, func(p profile) []types.Method {
		if lang == types.LanguageGo {
			if methods, ok := goMethods(path, content); ok {
				return methods
			}
		}
		return extractMethods(p, content)
	})
}

// goMethods extracts the top-level functions, methods, structs and
// interfaces of a Go file from its syntax tree. Spans are exact. It reports
// false when the file does not parse so the caller can fall back to the
// signature patterns.
func goMethods(path, content string) ([]types.Method, bool) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil || file == nil {
		return nil, false
	}

	e := &goExtractor{fset: fset, content: content}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			e.function(d)
		case *ast.GenDecl:
			if d.Tok == token.TYPE {
				e.typeDecl(d)
			}
		}
	}
	return e.methods, true
}

type goExtractor struct {
	fset    *token.FileSet
	content string
	methods []types.Method
}

func (e *goExtractor) offset(p token.Pos) int {
	return e.fset.Position(p).Offset
}

func (e *goExtractor) text(from, to token.Pos) string {
	return e.content[e.offset(from):e.offset(to)]
}

// function records a function or method declaration
func (e *goExtractor) function(fn *ast.FuncDecl) {
	kind := types.MethodFunction
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		kind = types.MethodMethod
	}

	m := types.Method{
		Name:      fn.Name.Name,
		Kind:      kind,
		StartLine: e.fset.Position(fn.Pos()).Line,
		EndLine:   e.fset.Position(fn.End()).Line,
		Params:    e.params(fn.Type.Params),
		Docstring: goDoc(fn.Doc),
		Body:      e.text(fn.Pos(), fn.End()),
	}

	var body string
	if fn.Body != nil {
		body = e.text(fn.Body.Lbrace, fn.End())
	}
	m.Summary = methodSummary(&m, body)
	e.methods = append(e.methods, m)
}

// typeDecl records every struct and interface of a type declaration. A
// grouped declaration contributes one span per spec.
func (e *goExtractor) typeDecl(gd *ast.GenDecl) {
	grouped := gd.Lparen.IsValid()

	for _, spec := range gd.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		switch ts.Type.(type) {
		case *ast.StructType, *ast.InterfaceType:
		default:
			continue
		}

		start, end, doc := gd.Pos(), gd.End(), gd.Doc
		if grouped {
			start, end = ts.Pos(), ts.End()
			if ts.Doc != nil {
				doc = ts.Doc
			}
		}

		m := types.Method{
			Name:      ts.Name.Name,
			Kind:      types.MethodClass,
			StartLine: e.fset.Position(start).Line,
			EndLine:   e.fset.Position(end).Line,
			Docstring: goDoc(doc),
			Body:      e.text(start, end),
		}
		m.Summary = methodSummary(&m, "")
		e.methods = append(e.methods, m)
	}
}

// params renders each parameter as written, one entry per name
func (e *goExtractor) params(fields *ast.FieldList) []string {
	if fields == nil || len(fields.List) == 0 {
		return nil
	}

	var out []string
	for _, field := range fields.List {
		typ := e.text(field.Type.Pos(), field.Type.End())
		if len(field.Names) == 0 {
			out = append(out, typ)
			continue
		}
		for _, name := range field.Names {
			out = append(out, name.Name+" "+typ)
		}
	}
	return out
}

func goDoc(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return cleanDoc(strings.TrimSpace(doc.Text()))
}
