package errors

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("invalid input").Build(), 2},
		{"auth", AuthError("unauthorized").Build(), 5},
		{"config", ConfigError("bad config").Build(), 7},
		{"gist", GistError("fetch failed").Build(), 8},
		{"git", NewError(CategoryGit, "push failed").Build(), 8},
		{"build", NewError(CategoryBuild, "stage failed").Build(), 11},
		{"template", TemplateError("bad layout").Build(), 11},
		{"content wrapped", fmt.Errorf("stage: %w", ContentError("bad frontmatter").Build()), 11},
		{"serve", NewError(CategoryServe, "listen").Build(), 12},
		{"runtime", RuntimeError("signal").Build(), 12},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", &customError{msg: "unknown error"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	assert.Empty(t, adapter.FormatError(nil))
	assert.Equal(t, "Error: unknown error", adapter.FormatError(&customError{msg: "unknown error"}))

	err := WrapError(&customError{msg: "yaml: line 3"}, CategoryContent, "parse frontmatter").
		WithContext("path", "posts/hello.md").
		Build()
	assert.Equal(t, "Error: parse frontmatter (posts/hello.md): yaml: line 3", adapter.FormatError(err))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logBuf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))

	code := adapter.Report(TemplateError("render layout").WithContext("layout", "post.pug").Build())

	require.Equal(t, 11, code)
	assert.Contains(t, logBuf.String(), "render layout")
	assert.Contains(t, logBuf.String(), "layout=post.pug")
}

func TestCLIErrorAdapter_ReportNilAndRetryable(t *testing.T) {
	var logBuf bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logBuf, nil)))

	assert.Equal(t, 0, adapter.Report(nil))
	assert.Empty(t, logBuf.String())

	code := adapter.Report(GistError("fetch gist").WithContext("gist_id", "abc").Build())
	assert.Equal(t, 8, code)
	assert.Contains(t, logBuf.String(), "fetch gist")
	assert.Contains(t, logBuf.String(), "gist_id=abc")
	assert.Contains(t, logBuf.String(), "retryable=true")
}

// customError is a test helper for unclassified errors
type customError struct {
	msg string
}

func (e *customError) Error() string {
	return e.msg
}
