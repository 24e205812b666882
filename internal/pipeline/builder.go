package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/gist"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// Builder runs complete site builds for one configuration. Builds are
// serialized; a Builder may be reused for rebuilds.
type Builder struct {
	cfg        *config.Config
	recorder   metrics.Recorder
	httpClient *http.Client
	fetcher    gist.Fetcher
	now        func() time.Time
	markdown   *markdown.Renderer

	mu             sync.Mutex
	gistCache      gist.Cache
	ownedGistCache *gist.SQLiteCache
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithHTTPClient sets the client used for gist fetches.
func WithHTTPClient(c *http.Client) Option { return func(b *Builder) { b.httpClient = c } }

// WithGistFetcher replaces the GitHub API client.
func WithGistFetcher(f gist.Fetcher) Option { return func(b *Builder) { b.fetcher = f } }

// WithGistCache replaces the SQLite gist cache.
func WithGistCache(c gist.Cache) Option { return func(b *Builder) { b.gistCache = c } }

// WithClock overrides the build time source (drafts, feed, templates).
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// NewBuilder creates a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(b)
	}
	if b.fetcher == nil {
		b.fetcher = gist.NewClient(cfg.Gist, b.httpClient)
	}
	md := cfg.Build.Markdown
	b.markdown = markdown.NewRenderer(markdown.Options{
		DisableTypographer: md.DisableTypographer,
		DisableFootnotes:   md.DisableFootnotes,
		DisableRawHTML:     md.DisableRawHTML,
		HardWraps:          md.HardWraps,
	})
	return b
}

// Config returns the configuration the builder runs with.
func (b *Builder) Config() *config.Config { return b.cfg }

// Stages returns the ordered stage list for this configuration.
func (b *Builder) Stages() []StageDef {
	return NewPipeline().
		Add(StageReadSource, stageReadSource).
		Add(StageFrontmatter, stageFrontmatter).
		Add(StageDrafts, stageDrafts).
		Add(StageCollections, stageCollections).
		Add(StageMarkdown, stageMarkdown).
		Add(StageExcerpts, stageExcerpts).
		Add(StageGists, stageGists).
		Add(StagePermalinks, stagePermalinks).
		Add(StageLayouts, stageLayouts).
		AddIf(!b.cfg.Feed.Disabled, StageFeed, stageFeed).
		Add(StageWriteOutput, stageWriteOutput).
		AddIf(b.cfg.Build.VerifyLinks, StageVerifyLinks, stageVerifyLinks).
		Build()
}

// Build runs every stage once. The report is returned even when the build fails.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	report := NewBuildReport()
	bs := newBuildState(b, report)
	slog.Info("Build started", logfields.BuildID(report.BuildID), logfields.Path(b.cfg.SourceDir()))

	err := RunStages(ctx, bs, b.Stages())

	report.Finish()
	report.DeriveOutcome()
	b.recorder.ObserveBuildDuration(report.Duration())
	b.recorder.IncBuildOutcome(report.MetricsOutcome())

	if err != nil {
		slog.Error("Build failed", logfields.BuildID(report.BuildID), logfields.Error(err),
			slog.String("outcome", string(report.Outcome)))
		return report, err
	}
	slog.Info("Build complete", logfields.BuildID(report.BuildID), slog.String("summary", report.Summary()))
	return report, nil
}

// gistCacheFor returns the configured cache, opening the SQLite cache on
// first use. A cache that cannot be opened is logged and skipped.
func (b *Builder) gistCacheFor() gist.Cache {
	if b.gistCache != nil {
		return b.gistCache
	}
	if b.cfg.Gist.CacheTTL <= 0 {
		return nil
	}
	path := filepath.Join(b.cfg.CacheDir(), "gists.db")
	c, err := gist.OpenCache(path, b.cfg.Gist.CacheTTL)
	if err != nil {
		slog.Warn("Gist cache unavailable", logfields.Path(path), logfields.Error(err))
		return nil
	}
	if n, err := c.Prune(context.Background()); err == nil && n > 0 {
		slog.Debug("Pruned expired gists", logfields.Count(int(n)))
	}
	b.gistCache = c
	b.ownedGistCache = c
	return c
}

// Close releases the gist cache if the builder opened it.
func (b *Builder) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ownedGistCache == nil {
		return nil
	}
	err := b.ownedGistCache.Close()
	b.ownedGistCache = nil
	b.gistCache = nil
	return err
}
