// Package preview serves a built site locally, rebuilding it when its
// inputs change and reloading connected browsers.
package preview

import (
	"context"
	"log/slog"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Options configures Run.
type Options struct {
	Port       int
	LiveReload bool
	Debounce   time.Duration
	Registry   *prom.Registry
	// OnReady is called with the site URL once the server accepts connections.
	OnReady func(url string)
}

// OptionsFromConfig derives Options from the serve section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Port:       cfg.Serve.Port,
		LiveReload: cfg.Serve.LiveReloadEnabled(),
		Debounce:   cfg.Serve.RebuildDebounce,
	}
}

// Run builds the site, serves cfg's destination directory and rebuilds on
// changes to the watched inputs until ctx is canceled. A failing initial
// build does not stop the server.
func Run(ctx context.Context, cfg *config.Config, b SiteBuilder, opts Options) error {
	status := &buildStatus{}
	var hub *Hub
	if opts.LiveReload {
		hub = NewHub()
	}
	rb := newRebuilder(b, hub, status, opts.Debounce)

	slog.Info("Initial build")
	rb.rebuild(ctx)

	srv := NewServer(cfg.DestinationDir(), hub, opts.Registry, status)
	if err := srv.Start(opts.Port); err != nil {
		return err
	}
	slog.Info("Preview server listening", logfields.URL(srv.URL()), slog.Bool("live_reload", hub != nil))

	watcher, set, err := newWatcher(cfg.WatchPaths())
	if err != nil {
		shutdown(srv, rb)
		return err
	}
	defer func() { _ = watcher.Close() }()

	workerCtx, cancelWorker := context.WithCancel(ctx)
	go rb.run(workerCtx)
	stopAll := func() {
		cancelWorker()
		<-rb.done
		shutdown(srv, rb)
	}

	if opts.OnReady != nil {
		go opts.OnReady(srv.URL())
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutting down preview server...")
			stopAll()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				stopAll()
				return nil
			}
			if set.handleEvent(watcher, ev) {
				rb.trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				stopAll()
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func shutdown(srv *Server, rb *rebuilder) {
	rb.stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
}
