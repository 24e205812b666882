package config

import (
	"encoding/json"
	"maps"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// LoadMetadata reads the JSON metadata file merged into every page's template
// context. A missing file yields an empty map.
func LoadMetadata(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read metadata").
			WithContext("path", path).Fatal().Build()
	}
	meta := map[string]any{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse metadata").
			WithContext("path", path).Fatal().Build()
	}
	return meta, nil
}

// SiteContext merges metadata with the site section of the config. Metadata keys
// win; config fields only fill gaps.
func (c *Config) SiteContext(metadata map[string]any) map[string]any {
	out := map[string]any{
		"title":       c.Site.Title,
		"site_url":    c.Site.URL,
		"description": c.Site.Description,
		"language":    c.Site.Language,
		"author":      c.Site.Author,
	}
	for k, v := range out {
		if s, ok := v.(string); ok && s == "" {
			delete(out, k)
		}
	}
	maps.Copy(out, metadata)
	return out
}
