package frontmatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Meta is the typed view of the frontmatter keys the pipeline understands.
// Every key, known or not, stays available through the raw field map.
type Meta struct {
	Title       string
	Date        time.Time
	Draft       bool
	Layout      string
	Permalink   string
	Slug        string
	Description string
	Tags        []string
	Collections []string
	Author      string
}

// HasDate reports whether a date was set.
func (m Meta) HasDate() bool { return !m.Date.IsZero() }

// dateLayouts are tried in order when a date arrives as a string.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// MetaFromFields builds a Meta from raw fields. Unparseable dates or
// non-boolean draft values are errors.
func MetaFromFields(fields map[string]any) (Meta, error) {
	var m Meta
	var err error

	m.Title = stringField(fields, "title")
	m.Layout = stringField(fields, "layout")
	m.Permalink = stringField(fields, "permalink")
	m.Slug = stringField(fields, "slug")
	m.Description = stringField(fields, "description")
	m.Author = stringField(fields, "author")
	m.Tags = listField(fields["tags"])
	m.Collections = listField(fields["collection"])

	if m.Date, err = ParseDate(fields["date"]); err != nil {
		return Meta{}, err
	}
	if m.Draft, err = ParseBool(fields["draft"]); err != nil {
		return Meta{}, fmt.Errorf("draft: %w", err)
	}
	return m, nil
}

// ParseDate accepts time.Time values (TOML, tagged YAML) or strings in the
// common layouts (interpreted as UTC when no zone is given). A missing value
// is the zero time.
func ParseDate(v any) (time.Time, error) {
	switch vv := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return vv, nil
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return time.Time{}, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("date: unrecognized format %q", s)
	default:
		return time.Time{}, fmt.Errorf("date: unsupported type %T", v)
	}
}

// ParseBool accepts booleans and the strings true/false/yes/no/1/0.
func ParseBool(v any) (bool, error) {
	switch vv := v.(type) {
	case nil:
		return false, nil
	case bool:
		return vv, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(vv)) {
		case "yes", "y", "on":
			return true, nil
		case "no", "n", "off", "":
			return false, nil
		}
		return strconv.ParseBool(strings.TrimSpace(vv))
	case int:
		return vv != 0, nil
	case int64:
		return vv != 0, nil
	default:
		return false, fmt.Errorf("unsupported type %T", v)
	}
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return fmt.Sprint(v)
	}
}

// listField accepts a list or a comma separated string.
func listField(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch vv := v.(type) {
	case string:
		for _, part := range strings.Split(vv, ",") {
			add(part)
		}
	case []string:
		for _, s := range vv {
			add(s)
		}
	case []any:
		for _, item := range vv {
			add(fmt.Sprint(item))
		}
	}
	return out
}
