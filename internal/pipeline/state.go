package pipeline

import (
	"html/template"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/layouts"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
)

// BuildState carries the site and bookkeeping across stages.
type BuildState struct {
	Builder   *Builder
	Config    *config.Config
	Site      *content.Site
	Report    *BuildReport
	BuildTime time.Time

	// Generated holds non-page outputs (the feed) keyed by slash output path.
	Generated map[string][]byte

	layouts *layouts.Set
}

func newBuildState(b *Builder, report *BuildReport) *BuildState {
	return &BuildState{
		Builder:   b,
		Config:    b.cfg,
		Site:      content.NewSite(nil),
		Report:    report,
		BuildTime: b.now(),
		Generated: map[string][]byte{},
	}
}

func (bs *BuildState) recorder() metrics.Recorder {
	if bs.Builder == nil || bs.Builder.recorder == nil {
		return metrics.NoopRecorder{}
	}
	return bs.Builder.recorder
}

// layoutSet loads the layouts on first use.
func (bs *BuildState) layoutSet() (*layouts.Set, error) {
	if bs.layouts != nil {
		return bs.layouts, nil
	}
	set, err := layouts.Load(bs.Config.LayoutsDir(), bs.Config.Build.DefaultLayout, bs.siteURL())
	if err != nil {
		return nil, err
	}
	bs.layouts = set
	return set, nil
}

func (bs *BuildState) siteURL() string {
	if u, ok := bs.Site.Metadata["site_url"].(string); ok && u != "" {
		return u
	}
	return bs.Config.Site.URL
}

// templateData is the context pages and layouts render with.
func (bs *BuildState) templateData(f *content.File, body template.HTML) layouts.Data {
	return layouts.Data{
		Site:        bs.Site.Metadata,
		Page:        f,
		Collections: bs.Site.Collections,
		Content:     body,
		BuildTime:   bs.BuildTime,
	}
}
