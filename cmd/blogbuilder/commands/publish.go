package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
	"git.home.luguber.info/inful/blogbuilder/internal/publish"
	"git.home.luguber.info/inful/blogbuilder/internal/scheduler"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Message  string `short:"m" help:"Commit message (overrides publish.message)"`
	DryRun   bool   `name:"dry-run" help:"Build and commit but do not push"`
	Schedule string `help:"Cron expression; keep running and publish on this schedule (overrides publish.schedule)"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	builder := pipeline.NewBuilder(cfg)
	defer func() { _ = builder.Close() }()
	job := publishJob(builder, publish.New(cfg), publish.Options{Message: p.Message, DryRun: p.DryRun}, root.Stdout())

	expr := p.Schedule
	if expr == "" {
		expr = cfg.Publish.Schedule
	}
	if expr == "" {
		return job(ctx)
	}
	return runScheduled(ctx, expr, job)
}

// publishJob builds the site then publishes it. Builds pick up the current
// time, so posts dated in the future go live on the first run after their date.
func publishJob(b *pipeline.Builder, pub *publish.Publisher, opts publish.Options, out io.Writer) func(context.Context) error {
	return func(ctx context.Context) error {
		report, err := b.Build(ctx)
		if err != nil {
			return err
		}
		res, err := pub.Publish(ctx, opts)
		if err != nil {
			return err
		}
		switch {
		case !res.Changed:
			_, _ = fmt.Fprintf(out, "Nothing to publish (%s)\n", report.Summary())
		case res.Pushed:
			_, _ = fmt.Fprintf(out, "Published %s to %s@%s\n", short(res.Commit), res.Remote, res.Branch)
		default:
			_, _ = fmt.Fprintf(out, "Dry run: committed %s for %s@%s, not pushed\n", short(res.Commit), res.Remote, res.Branch)
		}
		return nil
	}
}

func runScheduled(ctx context.Context, expr string, job func(context.Context) error) error {
	s, err := scheduler.New()
	if err != nil {
		return err
	}
	id, err := s.ScheduleCron(ctx, "publish", expr, job)
	if err != nil {
		_ = s.Stop()
		return err
	}
	s.Start()
	if next, err := s.NextRun(id); err == nil {
		slog.Info("Waiting for scheduled publish", logfields.Schedule(expr), slog.Time("next_run", next))
	}
	<-ctx.Done()
	return s.Stop()
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
