// Package treesitter extracts C function signatures from source buffers using
// tree-sitter.
package treesitter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/xonecas/cffind/internal/signature"
)

// DefaultExtensions are the file extensions picked up when walking directories.
var DefaultExtensions = []string{".c", ".h"}

// Supported reports whether path has one of the given extensions
// (DefaultExtensions when exts is empty). Files named explicitly on the
// command line are parsed regardless.
func Supported(path string, exts []string) bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	return slices.Contains(exts, strings.ToLower(filepath.Ext(path)))
}

// Extract parses buf as C and returns one candidate per function declaration
// or definition, in source order. Candidates are labelled with buf.Name().
//
// Type texts that do not appear verbatim in the source (e.g. "char*" for
// "char *s") are appended to buf, so buf may grow.
func Extract(ctx context.Context, buf *signature.Buffer) ([]signature.Candidate, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(c.GetLanguage())

	src := buf.Bytes()
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", buf.Name(), err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		log.Debug().Str("file", buf.Name()).Msg("source has syntax errors, extracting what parses")
	}

	x := &extractor{buf: buf, src: src}
	x.walk(root)
	return x.out, nil
}

type extractor struct {
	buf *signature.Buffer
	src []byte // original source; never grows
	out []signature.Candidate
}

// walk visits top-level items, descending through preprocessor blocks and
// linkage specifications but never into function bodies.
func (x *extractor) walk(node *sitter.Node) {
	switch node.Type() {
	case "declaration", "function_definition":
		if cand, ok := x.candidate(node); ok {
			x.out = append(x.out, cand)
		}
		return
	case "compound_statement", "struct_specifier", "union_specifier", "enum_specifier":
		return
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		x.walk(node.NamedChild(i))
	}
}

func (x *extractor) candidate(node *sitter.Node) (signature.Candidate, bool) {
	typeNode := node.ChildByFieldName("type")
	fn, stars := unwrapFunction(node.ChildByFieldName("declarator"))
	if typeNode == nil || fn == nil {
		return signature.Candidate{}, false
	}
	// Function pointer variables look like function declarators wrapping a
	// parenthesized declarator; only plain names are functions.
	if name := fn.ChildByFieldName("declarator"); name == nil || name.Type() != "identifier" {
		return signature.Candidate{}, false
	}

	cand := signature.Candidate{
		File: x.buf.Name(),
		Line: int(node.StartPoint().Row),
	}
	cand.Return = x.typeSpan(typeNode, stars)
	cand.Params = x.params(fn.ChildByFieldName("parameters"))
	cand.Definition = x.definition(node)
	return cand, true
}

func (x *extractor) params(list *sitter.Node) []signature.Span {
	if list == nil {
		return nil
	}
	var decls []*sitter.Node
	for i := 0; i < int(list.NamedChildCount()); i++ {
		if p := list.NamedChild(i); p.Type() == "parameter_declaration" {
			decls = append(decls, p)
		}
	}
	// "(void)" declares no parameters.
	if len(decls) == 1 {
		t := decls[0].ChildByFieldName("type")
		if t != nil && t.Content(x.src) == "void" && decls[0].ChildByFieldName("declarator") == nil {
			return nil
		}
	}

	var params []signature.Span
	for _, p := range decls {
		t := p.ChildByFieldName("type")
		if t == nil {
			continue
		}
		params = append(params, x.typeSpan(t, pointerDepth(p.ChildByFieldName("declarator"))))
	}
	return params
}

// typeSpan renders a type node plus pointer stars. The span points straight
// into the source when the rendering appears there verbatim.
func (x *extractor) typeSpan(typeNode *sitter.Node, stars int) signature.Span {
	text := strings.Join(strings.Fields(typeNode.Content(x.src)), " ") + strings.Repeat("*", stars)
	start := int(typeNode.StartByte())
	if bytes.HasPrefix(x.src[start:], []byte(text)) {
		if sp, err := x.buf.Span(start, len(text)); err == nil {
			return sp
		}
	}
	return x.buf.Append(text)
}

// definition spans a whole prototype, or a definition up to its body.
func (x *extractor) definition(node *sitter.Node) signature.Span {
	start, end := int(node.StartByte()), int(node.EndByte())
	if body := node.ChildByFieldName("body"); body != nil {
		end = int(body.StartByte())
		for end > start && isSpace(x.src[end-1]) {
			end--
		}
	}
	sp, _ := x.buf.Span(start, end-start)
	return sp
}

// unwrapFunction strips pointer declarators around a function declarator and
// reports how many it removed. It returns nil if decl is not a function.
func unwrapFunction(decl *sitter.Node) (*sitter.Node, int) {
	stars := 0
	for decl != nil {
		switch decl.Type() {
		case "function_declarator":
			return decl, stars
		case "pointer_declarator":
			stars++
			decl = decl.ChildByFieldName("declarator")
		default:
			return nil, 0
		}
	}
	return nil, 0
}

// pointerDepth counts pointer levels in a parameter declarator.
func pointerDepth(decl *sitter.Node) int {
	stars := 0
	for decl != nil {
		switch decl.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			stars++
			decl = decl.ChildByFieldName("declarator")
		default:
			return stars
		}
	}
	return stars
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
