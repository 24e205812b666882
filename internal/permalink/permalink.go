// Package permalink computes page URLs and output paths from patterns.
package permalink

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/goliatone/go-slug"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// IndexFile is the file written under every permalink directory.
const IndexFile = "index.html"

var placeholder = regexp.MustCompile(`:([a-z]+)`)

// Resolver expands permalink patterns for content files.
type Resolver struct {
	pattern    string
	dateFormat string
	linksets   map[string]string
}

// NewResolver builds a resolver from the permalinks configuration.
func NewResolver(cfg config.PermalinkConfig) *Resolver {
	r := &Resolver{pattern: cfg.Pattern, dateFormat: cfg.DateFormat, linksets: cfg.Linksets}
	if r.pattern == "" {
		r.pattern = config.DefaultPattern
	}
	if r.dateFormat == "" {
		r.dateFormat = config.DefaultDateFormat
	}
	return r
}

// PatternFor returns the pattern that applies to f: its frontmatter permalink,
// else the linkset of its first matching collection, else the default pattern.
func (r *Resolver) PatternFor(f *content.File) string {
	if f.Meta.Permalink != "" {
		return f.Meta.Permalink
	}
	cols := append([]string(nil), f.Collections...)
	sort.Strings(cols)
	for _, c := range cols {
		if p, ok := r.linksets[c]; ok {
			return p
		}
	}
	return r.pattern
}

// Resolve computes the permalink (leading and trailing slash) and the output
// path relative to the destination. index.* files map to their directory.
// A frontmatter permalink with a file extension (e.g. /404.html) is written as is.
func (r *Resolver) Resolve(f *content.File) (permalink, outputPath string, err error) {
	if f.Meta.Permalink == "" && f.Basename() == "index" {
		permalink = "/"
		if dir := f.Dir(); dir != "" {
			permalink = "/" + dir + "/"
		}
		return permalink, OutputPath(permalink), nil
	}

	expanded, err := r.expand(r.PatternFor(f), f)
	if err != nil {
		return "", "", err
	}
	cleaned := path.Clean("/" + expanded)
	if path.Ext(cleaned) != "" && f.Meta.Permalink != "" {
		return cleaned, strings.TrimPrefix(cleaned, "/"), nil
	}
	if cleaned != "/" {
		cleaned += "/"
	}
	return cleaned, OutputPath(cleaned), nil
}

// OutputPath maps a directory permalink to its index.html path.
func OutputPath(permalink string) string {
	trimmed := strings.Trim(permalink, "/")
	if trimmed == "" {
		return IndexFile
	}
	return trimmed + "/" + IndexFile
}

func (r *Resolver) expand(pattern string, f *content.File) (string, error) {
	var firstErr error
	out := placeholder.ReplaceAllStringFunc(pattern, func(token string) string {
		if firstErr != nil {
			return ""
		}
		value, err := r.value(token[1:], f)
		if err != nil {
			firstErr = err
			return ""
		}
		return value
	})
	if firstErr != nil {
		return "", errors.WrapError(firstErr, errors.CategoryContent, "expand permalink").
			WithContext("path", f.Path).
			WithContext("pattern", pattern).
			Fatal().
			Build()
	}
	return out, nil
}

func (r *Resolver) value(name string, f *content.File) (string, error) {
	needDate := func() error {
		if !f.Meta.HasDate() {
			return fmt.Errorf(":%s requires a date", name)
		}
		return nil
	}
	switch name {
	case "title":
		if f.Meta.Title == "" {
			return "", fmt.Errorf(":title requires a title")
		}
		return Slugify(f.Meta.Title), nil
	case "slug":
		return SlugFor(f), nil
	case "basename":
		return f.Basename(), nil
	case "dir":
		return f.Dir(), nil
	case "collection":
		if len(f.Collections) == 0 {
			return "", fmt.Errorf(":collection requires a collection")
		}
		cols := append([]string(nil), f.Collections...)
		sort.Strings(cols)
		return cols[0], nil
	case "date":
		if err := needDate(); err != nil {
			return "", err
		}
		return f.Meta.Date.Format(r.dateFormat), nil
	case "year":
		if err := needDate(); err != nil {
			return "", err
		}
		return f.Meta.Date.Format("2006"), nil
	case "month":
		if err := needDate(); err != nil {
			return "", err
		}
		return f.Meta.Date.Format("01"), nil
	case "day":
		if err := needDate(); err != nil {
			return "", err
		}
		return f.Meta.Date.Format("02"), nil
	default:
		return "", fmt.Errorf("unknown placeholder :%s", name)
	}
}

// SlugFor returns the frontmatter slug, else the slugified title, else the
// slugified basename.
func SlugFor(f *content.File) string {
	for _, candidate := range []string{f.Meta.Slug, f.Meta.Title, f.Basename()} {
		if s := Slugify(candidate); s != "" {
			return s
		}
	}
	return ""
}

// Slugify normalizes s into a URL segment.
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	normalized, err := slug.Normalize(s)
	if err != nil {
		return ""
	}
	return normalized
}

// AbsURL joins a site URL and a path with exactly one slash between them.
// Absolute URLs are returned unchanged.
func AbsURL(siteURL, p string) string {
	if strings.Contains(p, "://") {
		return p
	}
	base := strings.TrimRight(siteURL, "/")
	if p == "" {
		return base + "/"
	}
	return base + "/" + strings.TrimLeft(p, "/")
}
