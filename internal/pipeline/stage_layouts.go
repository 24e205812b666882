package pipeline

import (
	"context"
	"html/template"
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/layouts"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// noLayout in frontmatter writes the page body without wrapping it.
const noLayout = "none"

// stageLayouts renders templated page bodies, then wraps every page in its
// layout. A layout named in frontmatter must exist; pages relying on a missing
// default layout are written bare.
func stageLayouts(ctx context.Context, bs *BuildState) error {
	set, err := bs.layoutSet()
	if err != nil {
		return err
	}
	if err := renderTemplatedPages(ctx, bs, set); err != nil {
		return err
	}
	for _, f := range bs.Site.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := set.LayoutFor(f)
		switch {
		case name == noLayout:
			f.Output = []byte(f.HTML)
			continue
		case !set.Has(name) && f.Meta.Layout != "":
			return errors.TemplateError("layout not found").
				WithContext("layout", name).
				WithContext("path", f.Path).
				Build()
		case !set.Has(name):
			slog.Debug("No layout; writing body as is", logfields.Path(f.Path), logfields.Layout(name))
			f.Output = []byte(f.HTML)
			continue
		}
		out, err := set.Render(name, bs.templateData(f, f.HTML))
		if err != nil {
			return errors.WrapError(err, errors.CategoryTemplate, "apply layout").
				WithContext("path", f.Path).Fatal().Build()
		}
		f.Output = out
	}
	return nil
}

// renderTemplatedPages executes Pug and HTML page bodies with the full site
// context. Pages render in path order, so a page listing other templated pages
// sees their excerpts only when they sort before it.
func renderTemplatedPages(ctx context.Context, bs *BuildState, set *layouts.Set) error {
	var rendered []*content.File
	for _, f := range bs.Site.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.Kind == content.KindMarkdown {
			continue
		}
		out, err := set.RenderPage(f, bs.templateData(f, ""))
		if err != nil {
			return err
		}
		f.HTML = out
		// #nosec G203 -- excerpt is a slice of already rendered page HTML
		f.Excerpt = template.HTML(markdown.Excerpt([]byte(out)))
		rendered = append(rendered, f)
		bs.Report.PagesRendered++
	}
	n, err := embedGists(ctx, bs, rendered)
	bs.Report.GistsEmbedded += n
	return err
}
