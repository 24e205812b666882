package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/drafts"
	"git.home.luguber.info/inful/blogbuilder/internal/linkverify"
	"git.home.luguber.info/inful/blogbuilder/internal/metrics"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// ReportIssue is a structured entry describing one problem encountered.
type ReportIssue struct {
	Stage     StageName     `json:"stage"`
	Severity  IssueSeverity `json:"severity"`
	Message   string        `json:"message"`
	Transient bool          `json:"transient"`
}

// BuildReport captures what a build did and how it ended.
type BuildReport struct {
	BuildID        string
	Version        string
	Start          time.Time
	End            time.Time
	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	Errors         []error // fatal errors causing build abortion (at most one)
	Warnings       []error
	Issues         []ReportIssue

	FilesRead     int
	AssetsFound   int
	Dropped       []drafts.Dropped
	PagesRendered int
	GistsEmbedded int
	FeedItems     int
	PagesWritten  int
	AssetsWritten int
	BrokenLinks   []linkverify.BrokenLink

	Outcome BuildOutcome
}

// NewBuildReport starts a report with a fresh build ID.
func NewBuildReport() *BuildReport {
	return &BuildReport{
		BuildID:        uuid.NewString(),
		Version:        version.Version,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

// AddIssue appends a structured issue and mirrors severity into Errors/Warnings.
func (r *BuildReport) AddIssue(stage StageName, severity IssueSeverity, msg string, transient bool, err error) {
	r.Issues = append(r.Issues, ReportIssue{Stage: stage, Severity: severity, Message: msg, Transient: transient})
	if err == nil {
		return
	}
	switch severity {
	case SeverityError:
		r.Errors = append(r.Errors, err)
	case SeverityWarning:
		r.Warnings = append(r.Warnings, err)
	}
}

// RecordStageResult stores a stage's result and emits metrics (if recorder non-nil).
func (r *BuildReport) RecordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	r.StageResults[stage] = res
	if recorder == nil {
		return
	}
	switch res {
	case StageResultSuccess:
		recorder.IncStageResult(string(stage), metrics.ResultSuccess)
	case StageResultWarning:
		recorder.IncStageResult(string(stage), metrics.ResultWarning)
	case StageResultFatal:
		recorder.IncStageResult(string(stage), metrics.ResultFatal)
	case StageResultCanceled:
		recorder.IncStageResult(string(stage), metrics.ResultCanceled)
	}
}

// Finish sets the end time of the report.
func (r *BuildReport) Finish() { r.End = time.Now() }

// Duration is the wall time of the build so far.
func (r *BuildReport) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// DeriveOutcome sets the Outcome field based on recorded errors/warnings.
func (r *BuildReport) DeriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// MetricsOutcome maps the outcome onto the metrics label set.
func (r *BuildReport) MetricsOutcome() metrics.BuildOutcomeLabel {
	switch r.Outcome {
	case OutcomeWarning:
		return metrics.BuildOutcomeWarning
	case OutcomeFailed:
		return metrics.BuildOutcomeFailed
	case OutcomeCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeSuccess
	}
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	return fmt.Sprintf("files=%d dropped=%d pages=%d assets=%d gists=%d feed_items=%d broken_links=%d duration=%s warnings=%d outcome=%s",
		r.FilesRead, len(r.Dropped), r.PagesWritten, r.AssetsWritten, r.GistsEmbedded, r.FeedItems, len(r.BrokenLinks),
		r.Duration().Truncate(time.Millisecond), len(r.Warnings), r.Outcome)
}
