package drafts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newSite() *content.Site {
	s := content.NewSite(nil)
	s.Add(&content.File{Path: "posts/published.md", Meta: frontmatter.Meta{Date: now.Add(-24 * time.Hour)}})
	s.Add(&content.File{Path: "posts/draft.md", Meta: frontmatter.Meta{Draft: true}})
	s.Add(&content.File{Path: "posts/scheduled.md", Meta: frontmatter.Meta{Date: now.Add(24 * time.Hour)}})
	s.Add(&content.File{Path: "about.pug"})
	return s
}

func TestIsDraft(t *testing.T) {
	assert.True(t, IsDraft(frontmatter.Meta{Draft: true}))
	assert.False(t, IsDraft(frontmatter.Meta{}))
}

func TestIsFuture(t *testing.T) {
	assert.True(t, IsFuture(frontmatter.Meta{Date: now.Add(time.Minute)}, now))
	assert.False(t, IsFuture(frontmatter.Meta{Date: now}, now))
	assert.False(t, IsFuture(frontmatter.Meta{}, now), "undated files are never future")
}

func TestFilterDefaults(t *testing.T) {
	s := newSite()
	dropped := Filter(s, Options{Now: now})

	require.Equal(t, []Dropped{
		{Path: "posts/draft.md", Reason: ReasonDraft},
		{Path: "posts/scheduled.md", Reason: ReasonFuture},
	}, dropped)
	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("posts/published.md")
	assert.True(t, ok)
}

func TestFilterIncludeDraftsAndFuture(t *testing.T) {
	s := newSite()
	assert.Empty(t, Filter(s, Options{IncludeDrafts: true, IncludeFuture: true, Now: now}))
	assert.Equal(t, 4, s.Len())
}

func TestFilterIncludeDraftsOnly(t *testing.T) {
	s := newSite()
	dropped := Filter(s, Options{IncludeDrafts: true, Now: now})
	require.Len(t, dropped, 1)
	assert.Equal(t, ReasonFuture, dropped[0].Reason)
}
