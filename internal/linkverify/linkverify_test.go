package linkverify

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, body := range files {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	}
	return root
}

func TestExtractLinksFromReader(t *testing.T) {
	base, _ := url.Parse("https://blog.example.com")
	links, err := ExtractLinksFromReader(strings.NewReader(`<html><head><link rel="stylesheet" href="/css/site.css"></head>
<body><a href="https://blog.example.com/about/">a</a><a href="https://other.org/">b</a><img src="pic.png"><a href="#top">c</a><a href="mailto:me@x.org">d</a></body></html>`), base)
	require.NoError(t, err)
	require.Len(t, links, 6)

	var verify []string
	for _, l := range links {
		if ShouldVerifyLink(l) {
			verify = append(verify, l.URL)
		}
	}
	assert.Equal(t, []string{"/css/site.css", "https://blog.example.com/about/", "pic.png"}, verify)
}

func TestVerifyReportsBrokenInternalLinks(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":             `<a href="/posts/hello/">ok</a><a href="/posts/missing/">broken</a><a href="feed.xml">feed</a>`,
		"posts/hello/index.html": `<a href="../../">home</a><img src="cat.png"><a href="https://blog.example.com/blog/about/">about</a>`,
		"posts/hello/cat.png":    "png",
		"feed.xml":               "<rss/>",
		"about/index.html":       `<a href="https://elsewhere.org/nope">external</a>`,
		"empty/.keep":            "",
	})

	broken, err := NewVerifier(root, "https://blog.example.com/blog").Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []BrokenLink{
		{Page: "index.html", URL: "/posts/missing/", Tag: "a"},
	}, broken)
}

func TestVerifyDirectoryWithoutIndexIsBroken(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":  `<a href="/empty/">x</a><a href="?page=2">y</a>`,
		"empty/.keep": "",
	})
	broken, err := NewVerifier(root, "").Verify(context.Background())
	require.NoError(t, err)
	require.Len(t, broken, 1)
	assert.Equal(t, "/empty/", broken[0].URL)
}
