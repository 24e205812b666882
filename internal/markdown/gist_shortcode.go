package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// gistLine matches `{% gist <id> [file] %}`; the id may be prefixed with "user/".
var gistLine = regexp.MustCompile(`^\{%\s*gist\s+(?:[\w-]+/)?([0-9A-Za-z]+)(?:\s+([^\s%]+))?\s*%\}$`)

// KindGist is the AST kind of a gist placeholder block.
var KindGist = ast.NewNodeKind("Gist")

// Gist is a block placeholder later replaced by the fetched gist content.
type Gist struct {
	ast.BaseBlock
	ID   string
	File string
}

func (n *Gist) Kind() ast.NodeKind { return KindGist }

func (n *Gist) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ID": n.ID, "File": n.File}, nil)
}

type gistParser struct{}

func (gistParser) Trigger() []byte { return []byte{'{'} }

func (gistParser) Open(_ ast.Node, reader text.Reader, _ parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	m := gistLine.FindSubmatch([]byte(strings.TrimSpace(string(line))))
	if m == nil {
		return nil, parser.NoChildren
	}
	reader.AdvanceToEOL()
	return &Gist{ID: string(m[1]), File: string(m[2])}, parser.NoChildren
}

func (gistParser) Continue(ast.Node, text.Reader, parser.Context) parser.State { return parser.Close }
func (gistParser) Close(ast.Node, text.Reader, parser.Context)                 {}
func (gistParser) CanInterruptParagraph() bool                                 { return true }
func (gistParser) CanAcceptIndentedLine() bool                                 { return false }

type gistRenderer struct{}

func (gistRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindGist, renderGist)
}

func renderGist(w util.BufWriter, _ []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	g := n.(*Gist)
	_, _ = w.WriteString(`<div class="gist" data-gist-id="`)
	_, _ = w.Write(util.EscapeHTML([]byte(g.ID)))
	if g.File != "" {
		_, _ = w.WriteString(`" data-gist-file="`)
		_, _ = w.Write(util.EscapeHTML([]byte(g.File)))
	}
	_, _ = w.WriteString("\"></div>\n")
	return ast.WalkSkipChildren, nil
}

type gistShortcode struct{}

// GistShortcode turns `{% gist id [file] %}` lines into gist placeholder elements.
var GistShortcode goldmark.Extender = gistShortcode{}

func (gistShortcode) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(util.Prioritized(gistParser{}, 150)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(gistRenderer{}, 500)))
}
