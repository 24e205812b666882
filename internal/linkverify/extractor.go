package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Link represents an extracted link from HTML content.
type Link struct {
	URL        string // The URL or path
	Tag        string // HTML tag (a, img, script, link, etc.)
	Attribute  string // Attribute containing the link (href, src)
	IsInternal bool   // True if link is internal to the site
}

// linkAttrs maps elements to the attribute holding their link.
var linkAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"video":  "src",
	"audio":  "src",
	"source": "src",
	"iframe": "src",
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string, base *url.URL) ([]*Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open HTML file").WithContext("html_path", htmlPath).Build()
	}
	defer func() {
		_ = file.Close() // Ignore close errors on read-only operation
	}()

	return ExtractLinksFromReader(file, base)
}

// ExtractLinksFromReader extracts all links from an HTML reader. base may be nil.
func ExtractLinksFromReader(r io.Reader, base *url.URL) ([]*Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}

	var links []*Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				if v := strings.TrimSpace(getAttr(n, attr)); v != "" {
					links = append(links, &Link{
						URL:        v,
						Tag:        n.Data,
						Attribute:  attr,
						IsInternal: isInternalLink(v, base),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// isInternalLink determines if a URL points into the site.
func isInternalLink(linkURL string, baseURL *url.URL) bool {
	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	return baseURL != nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host == baseURL.Host
}

// ShouldVerifyLink reports whether a link names a file that must exist.
func ShouldVerifyLink(link *Link) bool {
	if !link.IsInternal || link.URL == "" || strings.HasPrefix(link.URL, "#") {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(link.URL, prefix) {
			return false
		}
	}
	return true
}
