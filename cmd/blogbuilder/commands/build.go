package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Output directory (overrides paths.destination)"`
	Drafts bool   `help:"Include draft posts"`
	Future bool   `help:"Include posts dated in the future"`
	Clean  bool   `help:"Empty the output directory before writing"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	report, err := RunBuild(ctx, cfg)
	if report != nil {
		_, _ = fmt.Fprintf(root.Stdout(), "Build %s: %s\n", report.Outcome, report.Summary())
	}
	return err
}

func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Output != "" {
		cfg.Paths.Destination = absFlag(b.Output)
	}
	if b.Drafts {
		cfg.Build.IncludeDrafts = true
	}
	if b.Future {
		cfg.Build.IncludeFuture = true
	}
	if b.Clean {
		cfg.Build.Clean = true
	}
}

// RunBuild performs one build of cfg.
func RunBuild(ctx context.Context, cfg *config.Config, opts ...pipeline.Option) (*pipeline.BuildReport, error) {
	builder := pipeline.NewBuilder(cfg, opts...)
	defer func() { _ = builder.Close() }()
	return builder.Build(ctx)
}
