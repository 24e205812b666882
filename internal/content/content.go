// Package content models the files moving through a blog build.
package content

import (
	"html/template"
	"path"
	"sort"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
)

// Kind tells the renderer how to turn a body into HTML.
type Kind string

const (
	KindMarkdown Kind = "markdown"
	KindPug      Kind = "pug"
	KindHTML     Kind = "html"
)

// KindForPath classifies a source path by extension; ok is false for assets.
func KindForPath(p string) (Kind, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return KindMarkdown, true
	case ".pug":
		return KindPug, true
	case ".html", ".htm":
		return KindHTML, true
	}
	return "", false
}

// File is a site content file. Path is its identity; the remaining fields are
// filled in by successive pipeline stages.
type File struct {
	Path        string
	Kind        Kind
	Raw         []byte
	Body        []byte
	Params      map[string]any
	Meta        frontmatter.Meta
	Fingerprint string
	HTML        template.HTML
	Excerpt     template.HTML
	Permalink   string
	OutputPath  string
	Output      []byte // final page after its layout
	Collections []string
	Prev        *File
	Next        *File
}

// Draft reports the frontmatter draft flag.
func (f *File) Draft() bool { return f.Meta.Draft }

// Dir returns the slash-separated source directory ("" at the root).
func (f *File) Dir() string {
	d := path.Dir(f.Path)
	if d == "." {
		return ""
	}
	return d
}

// Basename returns the file name without directory or extension.
func (f *File) Basename() string {
	base := path.Base(f.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Title returns the frontmatter title. Layouts use it as .Page.Title.
func (f *File) Title() string { return f.Meta.Title }

// Param returns a raw frontmatter value.
func (f *File) Param(key string) any { return f.Params[key] }

// InCollection reports collection membership.
func (f *File) InCollection(name string) bool {
	for _, c := range f.Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Asset is a static file copied verbatim to the destination.
type Asset struct {
	Path   string // slash path relative to its root, reused as output path
	Source string // absolute filesystem path
}

// Site is the ordered set of files keyed by path plus build-wide context.
type Site struct {
	files       map[string]*File
	Metadata    map[string]any
	Collections map[string][]*File
	Assets      []Asset
}

// NewSite creates an empty site with the given metadata.
func NewSite(metadata map[string]any) *Site {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Site{
		files:       map[string]*File{},
		Metadata:    metadata,
		Collections: map[string][]*File{},
	}
}

// Add inserts or replaces a file.
func (s *Site) Add(f *File) { s.files[f.Path] = f }

// Remove drops a file by path and reports whether it existed.
func (s *Site) Remove(p string) bool {
	if _, ok := s.files[p]; !ok {
		return false
	}
	delete(s.files, p)
	return true
}

// Get looks a file up by path.
func (s *Site) Get(p string) (*File, bool) {
	f, ok := s.files[p]
	return f, ok
}

// Len returns the number of files.
func (s *Site) Len() int { return len(s.files) }

// Files returns the files sorted by path.
func (s *Site) Files() []*File {
	out := make([]*File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
