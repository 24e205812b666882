package layouts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func layoutDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.html"),
		`<html><head>{{ template "head" . }}</head><body>{{ .Content }}</body></html>`)
	writeFile(t, filepath.Join(dir, "post.html"),
		`<article><h1>{{ .Page.Meta.Title }}</h1><time>{{ .Page.Meta.Date | date "2006-01-02" }}</time>{{ .Content }}</article>`)
	writeFile(t, filepath.Join(dir, "index.pug"), "doctype html\nhtml\n  body\n    h1 #{.Site.title}\n")
	writeFile(t, filepath.Join(dir, PartialsDir, "head.html"), `<title>{{ .Site.title }}</title>`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	return dir
}

func TestLoadAndRender(t *testing.T) {
	set, err := Load(layoutDir(t), "default", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "index", "post"}, set.Names())

	page := &content.File{Path: "posts/hi.md", Meta: frontmatter.Meta{Title: "Hi <there>", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Layout: "post.html"}}
	out, err := set.Render(set.LayoutFor(page), Data{
		Site:    map[string]any{"title": "Blog"},
		Page:    page,
		Content: "<p>body</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, `<article><h1>Hi &lt;there&gt;</h1><time>2024-03-01</time><p>body</p></article>`, string(out))
}

func TestRenderDefaultLayoutWithPartial(t *testing.T) {
	set, err := Load(layoutDir(t), "default.html", "")
	require.NoError(t, err)

	page := &content.File{Path: "about.md"}
	out, err := set.Render(set.LayoutFor(page), Data{Site: map[string]any{"title": "Blog"}, Page: page, Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, `<html><head><title>Blog</title></head><body>x</body></html>`, string(out))
}

func TestRenderPugLayout(t *testing.T) {
	set, err := Load(layoutDir(t), "default", "")
	require.NoError(t, err)

	out, err := set.Render("index", Data{Site: map[string]any{"title": "Pug Blog"}, Page: &content.File{}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>")
	assert.Contains(t, string(out), "Pug Blog")
}

func TestRenderMissingLayoutIsTemplateError(t *testing.T) {
	set, err := Load(layoutDir(t), "default", "")
	require.NoError(t, err)

	_, err = set.Render("nope", Data{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
	assert.False(t, set.Has("nope"))
	assert.True(t, set.Has("post.pug"))
}

func TestLoadRejectsBrokenTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "default.html"), `{{ if }}`)
	_, err := Load(dir, "default", "")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))
}

func TestLoadMissingDirectoryIsEmpty(t *testing.T) {
	set, err := Load(filepath.Join(t.TempDir(), "missing"), "default", "")
	require.NoError(t, err)
	assert.Empty(t, set.Names())
}

func TestRenderPageExecutesHTMLBody(t *testing.T) {
	set, err := Load(layoutDir(t), "default", "https://example.com/")
	require.NoError(t, err)

	page := &content.File{Path: "links.html", Kind: content.KindHTML, Body: []byte(`<a href="{{ absURL "/feed.xml" }}">{{ upper "rss" }}</a>`)}
	out, err := set.RenderPage(page, Data{Page: page})
	require.NoError(t, err)
	assert.Equal(t, `<a href="https://example.com/feed.xml">RSS</a>`, string(out))
}

func TestName(t *testing.T) {
	assert.Equal(t, "post", Name("post.pug"))
	assert.Equal(t, "post", Name("post.html"))
	assert.Equal(t, "post", Name(" post "))
	assert.Equal(t, "post.v2", Name("post.v2"))
}
