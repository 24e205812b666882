package config

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Normalize canonicalizes enumerated and bounded fields prior to default application.
// Unknown enum values are reset (defaults fill them in) and reported as warnings.
func Normalize(c *Config) []string {
	var warnings []string
	warn := func(field, raw, fallback string) {
		msg := fmt.Sprintf("%s: unknown value %q, using %q", field, raw, fallback)
		warnings = append(warnings, msg)
		slog.Warn("Configuration value normalized", slog.String("field", field), slog.String("value", raw))
	}

	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	c.Site.Language = strings.TrimSpace(c.Site.Language)

	for name, coll := range c.Collections {
		if raw := string(coll.SortBy); strings.TrimSpace(raw) != "" {
			coll.SortBy = NormalizeSortBy(raw)
			if coll.SortBy == "" {
				warn("collections."+name+".sort_by", raw, string(SortByDate))
			}
		}
		if coll.Limit < 0 {
			coll.Limit = 0
		}
		c.Collections[name] = coll
	}

	if raw := string(c.Gist.RetryBackoff); strings.TrimSpace(raw) != "" {
		c.Gist.RetryBackoff = NormalizeRetryBackoff(raw)
		if c.Gist.RetryBackoff == "" {
			warn("gist.retry_backoff", raw, string(RetryBackoffExponential))
		}
	}
	c.Gist.APIURL = strings.TrimRight(strings.TrimSpace(c.Gist.APIURL), "/")
	if c.Gist.Concurrency < 0 {
		c.Gist.Concurrency = 0
	}
	if c.Gist.MaxRetries < 0 {
		c.Gist.MaxRetries = 0
	}
	if c.Feed.Limit < 0 {
		c.Feed.Limit = 0
	}
	if c.Feed.Path != "" {
		c.Feed.Path = strings.TrimPrefix(path.Clean("/"+c.Feed.Path), "/")
	}
	c.Permalinks.Pattern = strings.TrimSpace(c.Permalinks.Pattern)
	c.Publish.CNAME = strings.TrimSpace(c.Publish.CNAME)
	c.Publish.Schedule = strings.TrimSpace(c.Publish.Schedule)
	return warnings
}
