package collections

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func paths(files []*content.File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Path)
	}
	return out
}

func testSite() *content.Site {
	s := content.NewSite(nil)
	s.Add(&content.File{Path: "posts/a.md", Meta: frontmatter.Meta{Title: "Banana", Date: day(1)}})
	s.Add(&content.File{Path: "posts/b.md", Meta: frontmatter.Meta{Title: "apple", Date: day(3)}})
	s.Add(&content.File{Path: "posts/c.md", Meta: frontmatter.Meta{Title: "Cherry"}})
	s.Add(&content.File{Path: "posts/deep/d.md", Meta: frontmatter.Meta{Title: "Date", Date: day(2)}})
	s.Add(&content.File{Path: "about.md", Meta: frontmatter.Meta{Title: "About", Collections: []string{"pages", "featured"}}})
	return s
}

func TestAssignDateDescendingWithUndatedLast(t *testing.T) {
	defs, err := Compile(map[string]config.CollectionConfig{
		"posts": {Pattern: "posts/**", SortBy: config.SortByDate},
	})
	require.NoError(t, err)

	s := testSite()
	Assign(s, defs)

	posts := s.Collections["posts"]
	assert.Equal(t, []string{"posts/b.md", "posts/deep/d.md", "posts/a.md", "posts/c.md"}, paths(posts))

	b, _ := s.Get("posts/b.md")
	d, _ := s.Get("posts/deep/d.md")
	assert.Nil(t, b.Prev)
	assert.Equal(t, d, b.Next)
	assert.Equal(t, b, d.Prev)
	assert.Equal(t, []string{"posts"}, b.Collections)
}

func TestAssignFrontmatterCollectionsAndAdHoc(t *testing.T) {
	defs, err := Compile(map[string]config.CollectionConfig{
		"pages": {SortBy: config.SortByTitle},
	})
	require.NoError(t, err)

	s := testSite()
	Assign(s, defs)

	about, _ := s.Get("about.md")
	assert.Equal(t, []string{"featured", "pages"}, about.Collections)
	assert.Len(t, s.Collections["featured"], 1)
	assert.Len(t, s.Collections["pages"], 1)
}

func TestAssignLimitAndSortByTitle(t *testing.T) {
	reverse := false
	defs, err := Compile(map[string]config.CollectionConfig{
		"posts": {Pattern: "posts/*.md", SortBy: config.SortByTitle, Reverse: &reverse, Limit: 2},
	})
	require.NoError(t, err)

	s := testSite()
	Assign(s, defs)

	assert.Equal(t, []string{"posts/b.md", "posts/a.md"}, paths(s.Collections["posts"]))
	c, _ := s.Get("posts/c.md")
	assert.Empty(t, c.Collections, "files cut by the limit are not members")
}

func TestAssignIsIdempotent(t *testing.T) {
	defs, err := Compile(map[string]config.CollectionConfig{"posts": {Pattern: "posts/**"}})
	require.NoError(t, err)
	s := testSite()
	Assign(s, defs)
	Assign(s, defs)
	b, _ := s.Get("posts/b.md")
	assert.Equal(t, []string{"posts"}, b.Collections)
}

func TestSortAscendingDateKeepsUndatedLast(t *testing.T) {
	s := testSite()
	files := s.Files()
	Sort(files, config.SortByDate, false)
	assert.Equal(t, []string{"posts/a.md", "posts/deep/d.md", "posts/b.md", "about.md", "posts/c.md"}, paths(files))
}

func TestCompileRejectsBadPattern(t *testing.T) {
	_, err := Compile(map[string]config.CollectionConfig{"bad": {Pattern: "posts/["}})
	assert.Error(t, err)
}
