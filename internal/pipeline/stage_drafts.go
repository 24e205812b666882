package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/collections"
	"git.home.luguber.info/inful/blogbuilder/internal/drafts"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

func stageDrafts(_ context.Context, bs *BuildState) error {
	dropped := drafts.Filter(bs.Site, drafts.Options{
		IncludeDrafts: bs.Config.Build.IncludeDrafts,
		IncludeFuture: bs.Config.Build.IncludeFuture,
		Now:           bs.BuildTime,
	})
	for _, d := range dropped {
		slog.Info("Skipping unpublished file", logfields.Path(d.Path), slog.String("reason", string(d.Reason)))
	}
	bs.Report.Dropped = dropped
	return nil
}

func stageCollections(_ context.Context, bs *BuildState) error {
	defs, err := collections.Compile(bs.Config.Collections)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "compile collections").Fatal().Build()
	}
	collections.Assign(bs.Site, defs)
	for name, files := range bs.Site.Collections {
		slog.Debug("Collection assembled", logfields.Collection(name), logfields.Count(len(files)))
	}
	return nil
}
