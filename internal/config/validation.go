package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// Validate checks cross-field invariants after defaults have been applied.
func Validate(c *Config) error {
	checks := []func(*Config) error{
		validatePaths,
		validateSite,
		validateCollections,
		validateFeed,
		validateServe,
		validatePublish,
	}
	for _, check := range checks {
		if err := check(c); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return errors.ValidationError(fmt.Sprintf(format, args...)).
		WithContext("field", field).
		Build()
}

func validatePaths(c *Config) error {
	src := filepath.Clean(c.Paths.Source)
	dst := filepath.Clean(c.Paths.Destination)
	if src == dst {
		return invalid("paths.destination", "destination %q must differ from source", c.Paths.Destination)
	}
	if rel, err := filepath.Rel(dst, src); err == nil && !strings.HasPrefix(rel, "..") {
		return invalid("paths.destination", "source %q must not live inside destination %q", c.Paths.Source, c.Paths.Destination)
	}
	return nil
}

func validateSite(c *Config) error {
	if c.Site.URL == "" {
		return nil
	}
	u, err := url.Parse(c.Site.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("site.url", "site url %q must be absolute", c.Site.URL)
	}
	return nil
}

func validateCollections(c *Config) error {
	for name, coll := range c.Collections {
		if strings.TrimSpace(name) == "" {
			return invalid("collections", "collection name must not be empty")
		}
		if coll.Pattern == "" {
			continue
		}
		if _, err := glob.Compile(coll.Pattern, '/'); err != nil {
			return invalid("collections."+name+".pattern", "invalid pattern %q: %v", coll.Pattern, err)
		}
	}
	for name := range c.Permalinks.Linksets {
		if _, ok := c.Collections[name]; !ok {
			return invalid("permalinks.linksets", "linkset %q names an unknown collection", name)
		}
	}
	return nil
}

func validateFeed(c *Config) error {
	if c.Feed.Disabled {
		return nil
	}
	if _, ok := c.Collections[c.Feed.Collection]; !ok {
		return invalid("feed.collection", "feed collection %q is not configured", c.Feed.Collection)
	}
	return nil
}

func validateServe(c *Config) error {
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return invalid("serve.port", "port %d out of range", c.Serve.Port)
	}
	return nil
}

func validatePublish(c *Config) error {
	if strings.ContainsAny(c.Publish.Branch, " ~^:") {
		return invalid("publish.branch", "invalid branch name %q", c.Publish.Branch)
	}
	return nil
}
