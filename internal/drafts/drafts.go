// Package drafts decides which content files are left out of a build.
package drafts

import (
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// IsDraft is the draft predicate: a file is a draft when its frontmatter says so.
func IsDraft(meta frontmatter.Meta) bool {
	return meta.Draft
}

// IsFuture reports whether the file is dated after now.
func IsFuture(meta frontmatter.Meta, now time.Time) bool {
	return meta.HasDate() && meta.Date.After(now)
}

// Options control which files survive Filter.
type Options struct {
	IncludeDrafts bool
	IncludeFuture bool
	Now           time.Time
}

// Reason explains why a file was dropped.
type Reason string

const (
	ReasonDraft  Reason = "draft"
	ReasonFuture Reason = "future"
)

// Dropped records one file removed from the site.
type Dropped struct {
	Path   string
	Reason Reason
}

// Filter removes drafts (and future-dated files) from site and returns what it
// dropped, in path order.
func Filter(site *content.Site, opts Options) []Dropped {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	var dropped []Dropped
	for _, f := range site.Files() {
		var reason Reason
		switch {
		case !opts.IncludeDrafts && IsDraft(f.Meta):
			reason = ReasonDraft
		case !opts.IncludeFuture && IsFuture(f.Meta, now):
			reason = ReasonFuture
		default:
			continue
		}
		site.Remove(f.Path)
		dropped = append(dropped, Dropped{Path: f.Path, Reason: reason})
	}
	return dropped
}
