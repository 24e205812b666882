// Package markdown renders article bodies with goldmark and derives excerpts.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// Options selects goldmark behavior. The zero value enables everything.
type Options struct {
	DisableTypographer bool
	DisableFootnotes   bool
	DisableRawHTML     bool
	HardWraps          bool
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a goldmark engine with GFM, definition lists, footnotes,
// typographer, auto heading IDs and the gist shortcode.
func NewRenderer(opts Options) *Renderer {
	exts := []goldmark.Extender{
		extension.GFM,
		extension.DefinitionList,
		GistShortcode,
	}
	if !opts.DisableFootnotes {
		exts = append(exts, extension.Footnote)
	}
	if !opts.DisableTypographer {
		exts = append(exts, extension.Typographer)
	}

	var rendererOptions []renderer.Option
	if !opts.DisableRawHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)}
}

// Render converts a Markdown body (frontmatter already removed) to HTML.
func (r *Renderer) Render(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}
