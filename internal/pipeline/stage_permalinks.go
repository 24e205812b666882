package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/permalink"
)

// stagePermalinks assigns each file its URL and output path. Two files
// claiming the same output path fail the build.
func stagePermalinks(_ context.Context, bs *BuildState) error {
	resolver := permalink.NewResolver(bs.Config.Permalinks)
	owners := make(map[string]string, bs.Site.Len())
	for _, f := range bs.Site.Files() {
		link, out, err := resolver.Resolve(f)
		if err != nil {
			return err
		}
		if prev, ok := owners[out]; ok {
			return errors.ContentError("duplicate output path").
				WithContext("output", out).
				WithContext("path", f.Path).
				WithContext("conflicts_with", prev).
				Build()
		}
		owners[out] = f.Path
		f.Permalink = link
		f.OutputPath = out
		slog.Debug("Assigned permalink", logfields.Path(f.Path), logfields.Permalink(link))
	}
	return nil
}
