package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyPermalink  = "permalink"
	KeyLayout     = "layout"
	KeyCollection = "collection"
	KeyGistID     = "gist_id"
	KeyURL        = "url"
	KeyBranch     = "branch"
	KeyRemote     = "remote"
	KeyCommit     = "commit"
	KeySchedule   = "schedule"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Permalink(p string) slog.Attr    { return slog.String(KeyPermalink, p) }
func Layout(name string) slog.Attr    { return slog.String(KeyLayout, name) }
func Collection(name string) slog.Attr {
	return slog.String(KeyCollection, name)
}
func GistID(id string) slog.Attr     { return slog.String(KeyGistID, id) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Branch(b string) slog.Attr      { return slog.String(KeyBranch, b) }
func Remote(r string) slog.Attr      { return slog.String(KeyRemote, r) }
func Commit(sha string) slog.Attr    { return slog.String(KeyCommit, sha) }
func Schedule(expr string) slog.Attr { return slog.String(KeySchedule, expr) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
