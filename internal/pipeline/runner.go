package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage. Warnings are recorded and the build goes on.
func RunStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	recorder := bs.recorder()
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(st.Name, ctx.Err())
			bs.Report.AddIssue(st.Name, SeverityError, se.Error(), false, se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, recorder)
			return se
		default:
		}

		t0 := time.Now()
		err := runStage(ctx, bs, st)
		dur := time.Since(t0)

		bs.Report.StageDurations[st.Name] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		se := classify(st.Name, err)
		if se == nil {
			bs.Report.RecordStageResult(st.Name, StageResultSuccess, recorder)
			slog.Debug("Stage complete", logfields.BuildID(bs.Report.BuildID), logfields.Stage(string(st.Name)),
				logfields.DurationMS(float64(dur.Microseconds())/1000))
			continue
		}

		switch se.Kind {
		case StageErrorWarning:
			bs.Report.AddIssue(st.Name, SeverityWarning, se.Error(), se.Transient(), se)
			bs.Report.RecordStageResult(st.Name, StageResultWarning, recorder)
			slog.Warn("Stage finished with warnings", logfields.BuildID(bs.Report.BuildID), logfields.Stage(string(st.Name)), logfields.Error(se.Err))
		case StageErrorCanceled:
			bs.Report.AddIssue(st.Name, SeverityError, se.Error(), false, se)
			bs.Report.RecordStageResult(st.Name, StageResultCanceled, recorder)
			return se
		default:
			bs.Report.AddIssue(st.Name, SeverityError, se.Error(), se.Transient(), se)
			bs.Report.RecordStageResult(st.Name, StageResultFatal, recorder)
			return se
		}
	}
	return nil
}

// runStage calls the stage function, turning a panic into an internal error.
func runStage(ctx context.Context, bs *BuildState, st StageDef) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ferrors.InternalError("stage panicked").
				WithContext("stage", string(st.Name)).
				WithContext("panic", fmt.Sprint(r)).
				Build()
		}
	}()
	return st.Fn(ctx, bs)
}

// classify wraps a stage's raw error. Errors that are not StageErrors are
// fatal, except context cancellation. Unclassified causes are filed as build
// errors.
func classify(stage StageName, err error) *StageError {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewCanceledStageError(stage, err)
	}
	if _, ok := ferrors.AsClassified(err); !ok {
		err = ferrors.WrapError(err, ferrors.CategoryBuild, "stage failed").
			WithContext("stage", string(stage)).
			Fatal().
			Build()
	}
	return NewFatalStageError(stage, err)
}
