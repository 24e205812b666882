package gist

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

func gistAPI(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/abc", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "abc",
			"files": map[string]any{
				"main.go":   map[string]any{"filename": "main.go", "language": "Go", "content": "package main\n"},
				"README.md": map[string]any{"filename": "README.md", "language": "Markdown", "content": "a <b> & c"},
			},
		})
	})
	mux.HandleFunc("/gists/b16", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "b16",
			"files": map[string]any{
				"big.txt": map[string]any{"filename": "big.txt", "truncated": true, "raw_url": "http://" + r.Host + "/raw/big.txt", "content": "part"},
			},
		})
	})
	mux.HandleFunc("/raw/big.txt", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("the whole thing"))
	})
	mux.HandleFunc("/gists/dead0", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(config.GistConfig{APIURL: srv.URL + "/", Token: "secret", Timeout: 5 * time.Second}, nil)
}

func TestClientFetch(t *testing.T) {
	var calls atomic.Int32
	c := testClient(gistAPI(t, &calls))

	g, err := c.Fetch(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", g.ID)
	assert.Equal(t, "package main\n", g.Files["main.go"].Content)
	assert.Equal(t, "Go", g.Files["main.go"].Language)
}

func TestClientFetchCompletesTruncatedFiles(t *testing.T) {
	var calls atomic.Int32
	srv := gistAPI(t, &calls)
	c := NewClient(config.GistConfig{APIURL: srv.URL}, srv.Client())

	g, err := c.Fetch(context.Background(), "b16")
	require.NoError(t, err)
	assert.Equal(t, "the whole thing", g.Files["big.txt"].Content)
	assert.False(t, g.Files["big.txt"].Truncated)
}

func TestClientFetchNotFound(t *testing.T) {
	var calls atomic.Int32
	c := testClient(gistAPI(t, &calls))

	_, err := c.Fetch(context.Background(), "dead0")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGist))
	assert.Contains(t, err.Error(), "Not Found")
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.False(t, ce.IsTransient())
	assert.Equal(t, 8, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestClientFetchRejectsInvalidID(t *testing.T) {
	var calls atomic.Int32
	c := testClient(gistAPI(t, &calls))

	for _, id := range []string{"", "../users/octocat", "abc?x=1", "abc/def", "zz9"} {
		_, err := c.Fetch(context.Background(), id)
		require.Error(t, err, id)
		assert.True(t, errors.HasCategory(err, errors.CategoryContent), id)
	}
	assert.Equal(t, int32(0), calls.Load(), "no request for an invalid id")
}

func TestClientFetchServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(config.GistConfig{APIURL: srv.URL}, nil).Fetch(context.Background(), "e0")
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.True(t, ce.IsTransient())
}

func TestSQLiteCacheTTL(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "cache", "gists.db"), time.Hour)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, &Gist{ID: "abc", Files: map[string]File{"a.go": {Filename: "a.go", Content: "x"}}}))
	g, ok, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", g.Files["a.go"].Content)

	now = now.Add(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "expired entries are misses")

	n, err := cache.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func newPage(path, body string) *content.File {
	return &content.File{Path: path, HTML: template.HTML(body)}
}

func TestEmbedReplacesPlaceholders(t *testing.T) {
	var calls atomic.Int32
	srv := gistAPI(t, &calls)
	cache, err := OpenCache(":memory:", time.Hour)
	require.NoError(t, err)
	defer func() { _ = cache.Close() }()

	e := NewEmbedder(testClient(srv), WithCache(cache), WithConcurrency(2))
	one := newPage("a.md", `<p>Intro</p><div class="gist" data-gist-id="abc" data-gist-file="main.go"></div>`)
	two := newPage("b.md", `<div class="gist" data-gist-id="abc"></div>`)
	plain := newPage("c.md", `<p>no gists</p>`)

	n, err := e.Embed(context.Background(), []*content.File{one, two, plain})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(1), calls.Load(), "each gist is fetched once per build")

	assert.Equal(t,
		`<p>Intro</p><pre class="gist" data-gist-id="abc" data-gist-file="main.go"><code class="language-go">package main
</code></pre>`, string(one.HTML))

	out := string(two.HTML)
	assert.Contains(t, out, `data-gist-file="README.md"><code class="language-markdown">a &lt;b&gt; &amp; c</code>`)
	assert.Less(t, strings.Index(out, "README.md"), strings.Index(out, "main.go"), "files are embedded in name order")
	assert.Equal(t, `<p>no gists</p>`, string(plain.HTML))

	// A second build is served from the cache and leaves embedded blocks alone.
	again := newPage("d.md", `<div data-gist-id="abc" data-gist-file="main.go"></div>`)
	n, err = e.Embed(context.Background(), []*content.File{again, one})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEmbedUnknownFileIsFatal(t *testing.T) {
	var calls atomic.Int32
	e := NewEmbedder(testClient(gistAPI(t, &calls)))
	f := newPage("a.md", `<div data-gist-id="abc" data-gist-file="nope.py"></div>`)

	_, err := e.Embed(context.Background(), []*content.File{f})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryGist))
	assert.Contains(t, string(f.HTML), "nope.py", "page is left untouched")
}

func TestEmbedFetchFailureIsFatal(t *testing.T) {
	var calls atomic.Int32
	e := NewEmbedder(testClient(gistAPI(t, &calls)), WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)))
	f := newPage("a.md", `<div data-gist-id="dead0"></div>`)

	_, err := e.Embed(context.Background(), []*content.File{f})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "not-found is not retried")
}

type flakyFetcher struct {
	failures int
	calls    int
}

func (f *flakyFetcher) Fetch(_ context.Context, id string) (*Gist, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.GistError("connection reset").Build()
	}
	return &Gist{ID: id, Files: map[string]File{"x.txt": {Filename: "x.txt", Content: "ok"}}}, nil
}

func TestEmbedRetriesTransientFailures(t *testing.T) {
	fetcher := &flakyFetcher{failures: 2}
	e := NewEmbedder(fetcher, WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 3)))
	f := newPage("a.md", `<div data-gist-id="abc"></div>`)

	n, err := e.Embed(context.Background(), []*content.File{f})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, fetcher.calls)
	assert.Contains(t, string(f.HTML), "ok")
}
