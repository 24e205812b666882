// Package linkverify checks that internal links in a built site resolve to
// written files.
package linkverify

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// BrokenLink is an internal link with no target in the output directory.
type BrokenLink struct {
	Page string // slash path of the page, relative to the output root
	URL  string
	Tag  string
}

// Verifier checks the internal links of a built site.
type Verifier struct {
	root     string
	base     *url.URL
	basePath string
}

// NewVerifier creates a Verifier for the output root. siteURL identifies
// absolute links that still point into the site; its path is treated as the
// site root.
func NewVerifier(root, siteURL string) *Verifier {
	v := &Verifier{root: root}
	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		v.base = u
		v.basePath = strings.TrimRight(u.Path, "/")
	}
	return v
}

// Verify walks every HTML file under the root and returns broken links sorted
// by page then URL.
func (v *Verifier) Verify(ctx context.Context) ([]BrokenLink, error) {
	var broken []BrokenLink
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		page := filepath.ToSlash(rel)
		links, err := ExtractLinks(p, v.base)
		if err != nil {
			return err
		}
		for _, l := range links {
			if !ShouldVerifyLink(l) {
				continue
			}
			if !v.resolves(page, l.URL) {
				broken = append(broken, BrokenLink{Page: page, URL: l.URL, Tag: l.Tag})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Page != broken[j].Page {
			return broken[i].Page < broken[j].Page
		}
		return broken[i].URL < broken[j].URL
	})
	return broken, nil
}

// resolves reports whether link, found on page, names an existing output file.
func (v *Verifier) resolves(page, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	target, err := url.PathUnescape(u.Path)
	if err != nil {
		return false
	}
	if target == "" {
		return true // query or fragment only
	}
	if strings.HasPrefix(target, "/") {
		if v.basePath != "" {
			trimmed := strings.TrimPrefix(target, v.basePath)
			if trimmed != target && (trimmed == "" || strings.HasPrefix(trimmed, "/")) {
				target = trimmed
			}
		}
	} else {
		target = path.Join(path.Dir(page), target)
	}
	target = strings.TrimPrefix(path.Clean("/"+target), "/")

	full := filepath.Join(v.root, filepath.FromSlash(target))
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	if !info.IsDir() {
		return true
	}
	_, err = os.Stat(filepath.Join(full, "index.html"))
	return err == nil
}
