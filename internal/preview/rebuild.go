package preview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/pipeline"
)

// SiteBuilder runs one full build.
type SiteBuilder interface {
	Build(ctx context.Context) (*pipeline.BuildReport, error)
}

// rebuilder debounces change notifications and runs at most one build at a
// time. Changes arriving during a build queue exactly one follow-up build.
type rebuilder struct {
	builder  SiteBuilder
	hub      *Hub
	status   *buildStatus
	debounce time.Duration
	now      func() time.Time

	mu    sync.Mutex
	timer *time.Timer
	req   chan struct{}
	done  chan struct{}
}

func newRebuilder(b SiteBuilder, hub *Hub, status *buildStatus, debounce time.Duration) *rebuilder {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &rebuilder{
		builder:  b,
		hub:      hub,
		status:   status,
		debounce: debounce,
		now:      time.Now,
		req:      make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// trigger schedules a rebuild once changes stop arriving for the debounce window.
func (r *rebuilder) trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.debounce, r.request)
}

// request queues a build; requests made while one is already queued coalesce.
func (r *rebuilder) request() {
	select {
	case r.req <- struct{}{}:
	default:
	}
}

// run processes build requests until ctx is done.
func (r *rebuilder) run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.req:
			r.rebuild(ctx)
		}
	}
}

// stop cancels a pending debounce timer.
func (r *rebuilder) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
}

// rebuild runs one build. A failed build leaves the previous output in
// place and tells browsers about the failure without reloading them.
func (r *rebuilder) rebuild(ctx context.Context) {
	report, err := r.builder.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("Rebuild failed; serving last good output", logfields.Error(err))
		r.status.setError(err)
		if r.hub != nil {
			r.hub.Broadcast(fmt.Sprintf("error:%d", r.now().UnixNano()))
		}
		return
	}
	r.status.setSuccess(report.BuildID)
	if r.hub != nil {
		r.hub.Broadcast(report.BuildID)
	}
}
