// Package render turns a document's markdown into themed HTML and a heading
// outline for in-page navigation.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/docsite/internal/frontmatter"
	"github.com/starford/docsite/internal/slug"
)

// HeadingFormatter returns the markup that opens and closes a heading of
// the given level carrying the given anchor id.
type HeadingFormatter func(level int, id string) (open, close string)

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Language string
	Code     string
}

// CodeBlockFormatter renders one complete code block.
type CodeBlockFormatter func(block CodeBlock, theme Theme) string

// Formatters customise the generic markdown conversion. Nil fields fall
// back to the defaults.
type Formatters struct {
	Heading   HeadingFormatter
	CodeBlock CodeBlockFormatter
}

// DefaultFormatters returns the self-linking heading and highlighted code
// block formatters.
func DefaultFormatters() Formatters {
	return Formatters{
		Heading:   FormatHeading,
		CodeBlock: FormatCodeBlock,
	}
}

// FormatHeading is the default HeadingFormatter. A hidden self-link
// precedes the heading content.
func FormatHeading(level int, id string) (string, string) {
	open := fmt.Sprintf(`<h%d id="%s" class="group"><a href="#%s" class="heading-anchor" aria-hidden="true">#</a>`, level, id, id)
	return open, fmt.Sprintf("</h%d>\n", level)
}

// Page is a rendered document.
type Page struct {
	HTML    string         `json:"html"`
	Outline []OutlineEntry `json:"outline"`
	Class   string         `json:"class"`
}

// Engine converts markdown bodies. It holds no per-render state and is safe
// for concurrent use.
type Engine struct {
	formatters Formatters
}

// NewEngine builds an Engine from f, filling nil formatters with defaults.
func NewEngine(f Formatters) *Engine {
	d := DefaultFormatters()
	if f.Heading == nil {
		f.Heading = d.Heading
	}
	if f.CodeBlock == nil {
		f.CodeBlock = d.CodeBlock
	}
	return &Engine{formatters: f}
}

var defaultEngine = NewEngine(DefaultFormatters())

// Strip removes a leading header block from raw.
func Strip(raw string) string {
	return frontmatter.Strip(raw)
}

// Render converts body with the default formatters.
func Render(body string, theme Theme) (string, error) {
	return defaultEngine.Render(body, theme)
}

// RenderDocument strips raw and returns its markup and outline.
func RenderDocument(raw string, theme Theme) (Page, error) {
	return defaultEngine.RenderDocument(raw, theme)
}

// Render converts body (header block already removed) to HTML. GFM
// constructs are enabled, soft line breaks stay soft and raw HTML is passed
// through.
func (e *Engine) Render(body string, theme Theme) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(headingIDs{}, 100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{f: e.formatters, theme: theme}, 100)),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return buf.String(), nil
}

// RenderDocument strips raw, renders the body and extracts its outline.
func (e *Engine) RenderDocument(raw string, theme Theme) (Page, error) {
	body := Strip(raw)
	out, err := e.Render(body, theme)
	if err != nil {
		return Page{}, err
	}
	return Page{HTML: out, Outline: Outline(body), Class: theme.ProseClass()}, nil
}

// headingIDs assigns every heading a unique slug of its raw source text.
type headingIDs struct{}

func (headingIDs) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()
	var ids slug.Deduper
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			id := ids.Unique(slug.Make(rawText(h, source)))
			h.SetAttributeString("id", []byte(id))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
}

type nodeRenderer struct {
	f     Formatters
	theme Theme
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindHeading, r.renderHeading)
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(ast.KindCodeBlock, r.renderIndentedCode)
}

func (r *nodeRenderer) renderHeading(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	h := node.(*ast.Heading)
	var id string
	if v, ok := h.AttributeString("id"); ok {
		if b, ok := v.([]byte); ok {
			id = string(b)
		}
	}
	open, closing := r.f.Heading(h.Level, id)
	if entering {
		_, _ = w.WriteString(open)
	} else {
		_, _ = w.WriteString(closing)
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)
	block := CodeBlock{Language: string(n.Language(source)), Code: rawText(n, source)}
	_, _ = w.WriteString(r.f.CodeBlock(block, r.theme))
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderIndentedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	block := CodeBlock{Code: rawText(node, source)}
	_, _ = w.WriteString(r.f.CodeBlock(block, r.theme))
	return ast.WalkContinue, nil
}

// rawText joins the source lines of a block node.
func rawText(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}
