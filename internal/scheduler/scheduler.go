// Package scheduler runs recurring jobs such as scheduled publishes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Scheduler wraps a gocron scheduler. Jobs never overlap: a run that is
// still going when the next one is due causes that run to be skipped.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// New creates a stopped scheduler.
func New() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins running jobs.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", logfields.Count(len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop waits for running jobs and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleCron registers fn under a cron expression. Six-field expressions
// include seconds.
func (s *Scheduler) ScheduleCron(ctx context.Context, name, expr string, fn func(context.Context) error) (string, error) {
	withSeconds := len(strings.Fields(expr)) == 6
	return s.schedule(ctx, name, gocron.CronJob(expr, withSeconds), fn, logfields.Schedule(expr))
}

// ScheduleEvery registers fn to run at a fixed interval.
func (s *Scheduler) ScheduleEvery(ctx context.Context, name string, every time.Duration, fn func(context.Context) error) (string, error) {
	if every <= 0 {
		return "", errors.ValidationError("schedule interval must be positive").
			WithContext("interval", every.String()).
			Build()
	}
	return s.schedule(ctx, name, gocron.DurationJob(every), fn, logfields.Schedule(every.String()))
}

func (s *Scheduler) schedule(ctx context.Context, name string, def gocron.JobDefinition, fn func(context.Context) error, sched slog.Attr) (string, error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(func() { run(ctx, name, fn) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "invalid schedule").
			WithContext("job", name).
			WithContext(sched.Key, sched.Value.String()).
			Build()
	}
	slog.Info("Scheduled job", slog.String("job", name), sched)
	return job.ID().String(), nil
}

// NextRun reports when the job with id runs next.
func (s *Scheduler) NextRun(id string) (time.Time, error) {
	jid, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	for _, j := range s.scheduler.Jobs() {
		if j.ID() == jid {
			return j.NextRun()
		}
	}
	return time.Time{}, errors.NewError(errors.CategoryNotFound, "job not found").WithContext("job", id).Build()
}

func run(ctx context.Context, name string, fn func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	slog.Info("Running scheduled job", slog.String("job", name))
	if err := fn(ctx); err != nil {
		slog.Error("Scheduled job failed", slog.String("job", name), logfields.Error(err))
		return
	}
	slog.Info("Scheduled job complete", slog.String("job", name),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}
