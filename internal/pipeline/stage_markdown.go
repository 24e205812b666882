package pipeline

import (
	"context"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/gist"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/retry"
)

// stageMarkdown renders Markdown bodies through goldmark. Pug and HTML pages
// are templates over the whole site and render in the layouts stage, once
// permalinks and excerpts exist.
func stageMarkdown(ctx context.Context, bs *BuildState) error {
	for _, f := range bs.Site.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Kind != content.KindMarkdown {
			continue
		}
		out, err := bs.Builder.markdown.Render(f.Body)
		if err != nil {
			return errors.WrapError(err, errors.CategoryContent, "render markdown").
				WithContext("path", f.Path).Fatal().Build()
		}
		// #nosec G203 -- goldmark output; raw HTML in posts is intended
		f.HTML = template.HTML(out)
		bs.Report.PagesRendered++
	}
	return nil
}

func stageExcerpts(_ context.Context, bs *BuildState) error {
	for _, f := range bs.Site.Files() {
		// #nosec G203 -- excerpt is a slice of already rendered page HTML
		f.Excerpt = template.HTML(markdown.Excerpt([]byte(f.HTML)))
	}
	return nil
}

// stageGists swaps gist placeholders for the gist source. Fetch failures fail
// the build.
func stageGists(ctx context.Context, bs *BuildState) error {
	n, err := embedGists(ctx, bs, bs.Site.Files())
	bs.Report.GistsEmbedded += n
	return err
}

// embedGists fetches and inlines the gists referenced by files.
func embedGists(ctx context.Context, bs *BuildState, files []*content.File) (int, error) {
	var pending []*content.File
	for _, f := range files {
		if strings.Contains(string(f.HTML), "data-gist-id") {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	b := bs.Builder
	opts := []gist.Option{
		gist.WithConcurrency(bs.Config.Gist.Concurrency),
		gist.WithRetryPolicy(retry.FromGistConfig(bs.Config.Gist)),
		gist.WithRecorder(bs.recorder()),
	}
	if cache := b.gistCacheFor(); cache != nil {
		opts = append(opts, gist.WithCache(cache))
	}
	return gist.NewEmbedder(b.fetcher, opts...).Embed(ctx, pending)
}
