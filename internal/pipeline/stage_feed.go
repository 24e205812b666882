package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// stageFeed renders the RSS feed of the configured collection into the
// generated outputs.
func stageFeed(_ context.Context, bs *BuildState) error {
	cfg := bs.Config.Feed
	files := bs.Site.Collections[cfg.Collection]

	author, _ := bs.Site.Metadata["author"].(string)
	items := feed.ItemsFromFiles(files, bs.siteURL(), author, cfg.Limit)
	ch := feed.ChannelFromSite(bs.Site.Metadata, cfg.Path)
	ch.BuildDate = bs.BuildTime

	out := strings.TrimPrefix(cfg.Path, "/")
	bs.Generated[out] = feed.NewGenerator().Render(ch, items)
	bs.Report.FeedItems = len(items)
	slog.Debug("Feed rendered", logfields.Path(out), logfields.Collection(cfg.Collection), logfields.Count(len(items)))
	return nil
}
