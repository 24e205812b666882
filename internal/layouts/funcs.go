package layouts

import (
	"html/template"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
	"git.home.luguber.info/inful/blogbuilder/internal/permalink"
)

// Funcs returns the helper functions available to layouts.
func Funcs(siteURL string) template.FuncMap {
	return template.FuncMap{
		"date":        formatDate,
		"rfc3339":     func(t time.Time) string { return formatDate(time.RFC3339, t) },
		"absURL":      func(p string) string { return permalink.AbsURL(siteURL, p) },
		"limit":       limit,
		"safeHTML":    func(s string) template.HTML { return template.HTML(s) }, // #nosec G203 -- explicit opt-in from layout authors
		"lower":       strings.ToLower,
		"upper":       strings.ToUpper,
		"readingTime": func(h template.HTML) int { return markdown.ReadingTime([]byte(h)) },
	}
}

// formatDate takes the layout first so it reads well in a pipeline:
// {{ .Page.Meta.Date | date "2 Jan 2006" }}. Zero times render empty.
func formatDate(layout string, t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

func limit(n int, files []*content.File) []*content.File {
	if n < 0 || n >= len(files) {
		return files
	}
	return files[:n]
}
