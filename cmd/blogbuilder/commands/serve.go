package commands

import (
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/blogbuilder/internal/browser"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/pidfile"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
	"git.home.luguber.info/inful/blogbuilder/internal/preview"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         int    `short:"p" help:"Port to listen on (overrides serve.port)"`
	NoLiveReload bool   `name:"no-live-reload" help:"Disable live reload and script injection"`
	Open         bool   `help:"Open the site in a browser once the server is up"`
	PIDFile      string `name:"pid-file" help:"PID file used to replace a running server (overrides serve.pid_file)"`
	Drafts       bool   `help:"Include draft posts"`
	Future       bool   `help:"Include posts dated in the future"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if s.Drafts {
		cfg.Build.IncludeDrafts = true
	}
	if s.Future {
		cfg.Build.IncludeFuture = true
	}

	pidPath := cfg.Resolve(cfg.Serve.PIDFile)
	if s.PIDFile != "" {
		pidPath = absFlag(s.PIDFile)
	}
	if _, err := pidfile.KillPrevious(pidPath); err != nil {
		return err
	}
	if err := pidfile.Write(pidPath); err != nil {
		return err
	}
	defer func() {
		if err := pidfile.Remove(pidPath); err != nil {
			slog.Warn("Failed to remove pid file", logfields.Path(pidPath), logfields.Error(err))
		}
	}()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	builder := pipeline.NewBuilder(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
	defer func() { _ = builder.Close() }()

	opts := preview.OptionsFromConfig(cfg)
	opts.Registry = reg
	if s.Port != 0 {
		opts.Port = s.Port
	}
	if s.NoLiveReload {
		opts.LiveReload = false
	}
	if s.Open || cfg.Serve.OpenBrowser {
		opts.OnReady = func(url string) {
			if err := browser.Open(url); err != nil {
				slog.Warn("Could not open browser", logfields.URL(url), logfields.Error(err))
			}
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	return preview.Run(ctx, cfg, builder, opts)
}
