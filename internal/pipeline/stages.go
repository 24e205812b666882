// Package pipeline assembles a site by running a fixed list of stages over a
// shared build state, aborting on the first fatal error.
package pipeline

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageReadSource  StageName = "read_source"
	StageFrontmatter StageName = "frontmatter"
	StageDrafts      StageName = "drafts"
	StageCollections StageName = "collections"
	StageMarkdown    StageName = "markdown"
	StageExcerpts    StageName = "excerpts"
	StageGists       StageName = "gists"
	StagePermalinks  StageName = "permalinks"
	StageLayouts     StageName = "layouts"
	StageFeed        StageName = "feed"
	StageWriteOutput StageName = "write_output"
	StageVerifyLinks StageName = "verify_links"
)

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Transient reports whether the underlying cause is worth retrying.
func (e *StageError) Transient() bool {
	if e == nil || e.Kind == StageErrorCanceled {
		return false
	}
	ce, ok := errors.AsClassified(e.Err)
	return ok && ce.IsTransient()
}

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// NewFatalStageError creates a new fatal stage error.
func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ Defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{Defs: make([]StageDef, 0, 12)} }

// Add appends a stage unconditionally.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.Defs = append(p.Defs, StageDef{Name: name, Fn: fn})
	return p
}

// AddIf appends a stage only if cond is true.
func (p *Pipeline) AddIf(cond bool, name StageName, fn Stage) *Pipeline {
	if cond {
		p.Add(name, fn)
	}
	return p
}

// Build returns a copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.Defs))
	copy(out, p.Defs)
	return out
}
