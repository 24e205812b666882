package gist

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

const (
	attrID   = "data-gist-id"
	attrFile = "data-gist-file"
)

var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// Embedder resolves gist placeholders across a set of pages.
type Embedder struct {
	fetcher     Fetcher
	cache       Cache
	policy      retry.Policy
	concurrency int
	recorder    metrics.Recorder
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithCache sets the cache consulted before fetching.
func WithCache(c Cache) Option { return func(e *Embedder) { e.cache = c } }

// WithRetryPolicy sets the retry policy for transient fetch failures.
func WithRetryPolicy(p retry.Policy) Option { return func(e *Embedder) { e.policy = p } }

// WithConcurrency bounds parallel fetches.
func WithConcurrency(n int) Option { return func(e *Embedder) { e.concurrency = n } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(e *Embedder) { e.recorder = r } }

// NewEmbedder creates an Embedder around fetcher.
func NewEmbedder(fetcher Fetcher, opts ...Option) *Embedder {
	e := &Embedder{
		fetcher:     fetcher,
		policy:      retry.DefaultPolicy(),
		concurrency: 4,
		recorder:    metrics.NoopRecorder{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.concurrency < 1 {
		e.concurrency = 1
	}
	return e
}

// placeholder is one element to replace.
type placeholder struct {
	node *html.Node
	id   string
	file string
}

type page struct {
	file         *content.File
	root         *html.Node
	placeholders []placeholder
}

// Embed replaces every placeholder in files and returns how many were
// replaced. Any fetch failure or unknown gist file aborts with an error and
// leaves all pages untouched.
func (e *Embedder) Embed(ctx context.Context, files []*content.File) (int, error) {
	var pages []page
	ids := map[string]bool{}
	for _, f := range files {
		if !strings.Contains(string(f.HTML), attrID) {
			continue
		}
		nodes, err := html.ParseFragment(strings.NewReader(string(f.HTML)), bodyContext)
		if err != nil {
			return 0, errors.WrapError(err, errors.CategoryContent, "parse page html").
				WithContext("path", f.Path).Fatal().Build()
		}
		root := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		for _, n := range nodes {
			root.AppendChild(n)
		}
		p := page{file: f, root: root}
		collect(root, &p.placeholders)
		if len(p.placeholders) == 0 {
			continue
		}
		for _, ph := range p.placeholders {
			ids[ph.id] = true
		}
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		return 0, nil
	}

	gists, err := e.fetchAll(ctx, ids)
	if err != nil {
		return 0, err
	}

	rendered := make([]template.HTML, len(pages))
	count := 0
	for i, p := range pages {
		for _, ph := range p.placeholders {
			repl, err := replacement(gists[ph.id], ph)
			if err != nil {
				return 0, errors.WrapError(err, errors.CategoryGist, "embed gist").
					WithContext("path", p.file.Path).Fatal().Build()
			}
			for _, n := range repl {
				ph.node.Parent.InsertBefore(n, ph.node)
			}
			ph.node.Parent.RemoveChild(ph.node)
			count++
		}
		var buf bytes.Buffer
		for n := p.root.FirstChild; n != nil; n = n.NextSibling {
			if err := html.Render(&buf, n); err != nil {
				return 0, errors.WrapError(err, errors.CategoryContent, "render page html").
					WithContext("path", p.file.Path).Fatal().Build()
			}
		}
		// #nosec G203 -- re-rendered from parsed, already trusted page HTML
		rendered[i] = template.HTML(buf.String())
	}
	for i, p := range pages {
		p.file.HTML = rendered[i]
	}
	return count, nil
}

// collect finds placeholder elements. Already embedded <pre> blocks carry
// the same attribute and are skipped.
func collect(n *html.Node, out *[]placeholder) {
	if n.Type == html.ElementNode && n.Parent != nil {
		if id := attr(n, attrID); id != "" && n.DataAtom != atom.Pre {
			*out = append(*out, placeholder{node: n, id: id, file: attr(n, attrFile)})
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, out)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func (e *Embedder) fetchAll(ctx context.Context, ids map[string]bool) (map[string]*Gist, error) {
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	var mu sync.Mutex
	out := make(map[string]*Gist, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for _, id := range sorted {
		g.Go(func() error {
			gist, err := e.fetchOne(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = gist
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) fetchOne(ctx context.Context, id string) (*Gist, error) {
	if e.cache != nil {
		g, ok, err := e.cache.Get(ctx, id)
		if err != nil {
			slog.Warn("Gist cache read failed", logfields.GistID(id), logfields.Error(err))
		}
		e.recorder.IncGistCache(ok)
		if ok {
			return g, nil
		}
	}

	var g *Gist
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		var ferr error
		g, ferr = e.fetcher.Fetch(ctx, id)
		return ferr
	}, func(attempt int, err error) {
		e.recorder.IncGistFetchRetry()
		slog.Warn("Retrying gist fetch", logfields.GistID(id), slog.Int("attempt", attempt), logfields.Error(err))
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("Fetched gist", logfields.GistID(id), logfields.Count(len(g.Files)))

	if e.cache != nil {
		if err := e.cache.Put(ctx, g); err != nil {
			slog.Warn("Gist cache write failed", logfields.GistID(id), logfields.Error(err))
		}
	}
	return g, nil
}

// replacement builds one <pre> block per gist file, or only the named file.
func replacement(g *Gist, ph placeholder) ([]*html.Node, error) {
	var names []string
	if ph.file != "" {
		if _, ok := g.Files[ph.file]; !ok {
			return nil, errors.NewError(errors.CategoryGist, "gist has no such file").
				WithContext("gist_id", ph.id).
				WithContext("file", ph.file).
				Fatal().
				Build()
		}
		names = []string{ph.file}
	} else {
		for name := range g.Files {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	out := make([]*html.Node, 0, len(names))
	for _, name := range names {
		f := g.Files[name]
		code := &html.Node{Type: html.ElementNode, Data: "code", DataAtom: atom.Code}
		if lang := languageClass(f.Language); lang != "" {
			code.Attr = []html.Attribute{{Key: "class", Val: "language-" + lang}}
		}
		code.AppendChild(&html.Node{Type: html.TextNode, Data: f.Content})
		pre := &html.Node{
			Type:     html.ElementNode,
			Data:     "pre",
			DataAtom: atom.Pre,
			Attr: []html.Attribute{
				{Key: "class", Val: "gist"},
				{Key: attrID, Val: ph.id},
				{Key: attrFile, Val: name},
			},
		}
		pre.AppendChild(code)
		out = append(out, pre)
	}
	return out, nil
}

func languageClass(lang string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(lang)), " ", "-")
}
