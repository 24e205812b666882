package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeFromCategory(classified.Category())
	}
	return 1
}

func exitCodeFromCategory(category ErrorCategory) int {
	switch category {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryAuth:
		return 5
	case CategoryNetwork, CategoryGit, CategoryGist:
		return 8
	case CategoryBuild, CategoryContent, CategoryTemplate, CategoryFileSystem:
		return 11
	case CategoryServe, CategoryRuntime:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError formats an error for display on stderr.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	msg := fmt.Sprintf("Error: %s", classified.Message())
	if path, ok := classified.Context().GetString("path"); ok {
		msg += " (" + path + ")"
	}
	if cause := classified.Cause(); cause != nil {
		msg += ": " + cause.Error()
	}
	return msg
}

// Report logs err, prints it to stderr and returns the mapped exit code.
// The caller exits, after releasing resources such as the log file.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	a.logError(err)
	fmt.Fprintln(os.Stderr, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) logError(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	for k, v := range classified.Context() {
		attrs = append(attrs, slog.Any(k, v))
	}
	if classified.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	if classified.Cause() != nil {
		attrs = append(attrs, slog.String("error", classified.Cause().Error()))
	}
	a.logger.LogAttrs(context.Background(), levelFromSeverity(classified.Severity()), classified.Message(), attrs...)
}

func levelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
