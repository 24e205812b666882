package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = "blog.yaml"

// Config is the root blog configuration.
type Config struct {
	Site        SiteConfig                  `yaml:"site"`
	Paths       PathsConfig                 `yaml:"paths"`
	Build       BuildConfig                 `yaml:"build"`
	Permalinks  PermalinkConfig             `yaml:"permalinks"`
	Collections map[string]CollectionConfig `yaml:"collections,omitempty"`
	Feed        FeedConfig                  `yaml:"feed"`
	Gist        GistConfig                  `yaml:"gist"`
	Serve       ServeConfig                 `yaml:"serve"`
	Publish     PublishConfig               `yaml:"publish"`

	// baseDir is the directory holding the config file; relative paths resolve against it.
	baseDir string
}

// SiteConfig holds the site identity. Values fill gaps left by the metadata file.
type SiteConfig struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Author      string `yaml:"author"`
}

// PathsConfig locates the inputs and outputs of a build.
type PathsConfig struct {
	Source      string `yaml:"source"`
	Layouts     string `yaml:"layouts"`
	Static      string `yaml:"static"`
	Destination string `yaml:"destination"`
	Metadata    string `yaml:"metadata"`
	Cache       string `yaml:"cache"`
}

// BuildConfig toggles optional pipeline behavior.
type BuildConfig struct {
	Clean         bool           `yaml:"clean"`
	IncludeDrafts bool           `yaml:"include_drafts"`
	IncludeFuture bool           `yaml:"include_future"`
	DefaultLayout string         `yaml:"default_layout"`
	VerifyLinks   bool           `yaml:"verify_links"`
	Markdown      MarkdownConfig `yaml:"markdown"`

	cleanSpecified bool
}

// UnmarshalYAML records whether clean was set explicitly so defaults can tell
// "omitted" apart from "false".
func (b *BuildConfig) UnmarshalYAML(node *yaml.Node) error {
	type rawBuild BuildConfig
	var raw rawBuild
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*b = BuildConfig(raw)
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "clean" {
			b.cleanSpecified = true
		}
	}
	return nil
}

// MarkdownConfig selects goldmark extensions. Everything is on unless disabled.
type MarkdownConfig struct {
	DisableTypographer bool `yaml:"disable_typographer"`
	DisableFootnotes   bool `yaml:"disable_footnotes"`
	DisableRawHTML     bool `yaml:"disable_raw_html"`
	HardWraps          bool `yaml:"hard_wraps"`
}

// PermalinkConfig controls URL generation.
type PermalinkConfig struct {
	Pattern    string            `yaml:"pattern"`
	DateFormat string            `yaml:"date_format"`
	Linksets   map[string]string `yaml:"linksets,omitempty"` // collection name -> pattern
}

// CollectionConfig describes one named, ordered group of files.
type CollectionConfig struct {
	Pattern string `yaml:"pattern"`
	SortBy  SortBy `yaml:"sort_by"`
	Reverse *bool  `yaml:"reverse,omitempty"`
	Limit   int    `yaml:"limit"`
}

// IsReversed reports the effective sort direction (descending unless disabled).
func (c CollectionConfig) IsReversed() bool {
	if c.Reverse == nil {
		return c.SortBy == SortByDate || c.SortBy == ""
	}
	return *c.Reverse
}

// FeedConfig controls the RSS feed.
type FeedConfig struct {
	Disabled   bool   `yaml:"disabled"`
	Collection string `yaml:"collection"`
	Path       string `yaml:"path"`
	Limit      int    `yaml:"limit"`
}

// GistConfig controls gist embedding.
type GistConfig struct {
	APIURL       string           `yaml:"api_url"`
	Token        string           `yaml:"token"`
	CacheTTL     time.Duration    `yaml:"cache_ttl"`
	Concurrency  int              `yaml:"concurrency"`
	Timeout      time.Duration    `yaml:"timeout"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitial time.Duration    `yaml:"retry_initial"`
	RetryMax     time.Duration    `yaml:"retry_max"`
	MaxRetries   int              `yaml:"max_retries"`
}

// ServeConfig controls the development server.
type ServeConfig struct {
	Port            int           `yaml:"port"`
	LiveReload      *bool         `yaml:"live_reload,omitempty"`
	PIDFile         string        `yaml:"pid_file"`
	OpenBrowser     bool          `yaml:"open_browser"`
	RebuildDebounce time.Duration `yaml:"rebuild_debounce"`
}

// LiveReloadEnabled reports whether the live reload hub should run (default on).
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// PublishConfig controls GitHub Pages publishing.
type PublishConfig struct {
	Remote      string `yaml:"remote"`
	Branch      string `yaml:"branch"`
	CNAME       string `yaml:"cname"`
	Message     string `yaml:"message"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	Token       string `yaml:"token"`
	Schedule    string `yaml:"schedule"`
}

// Load reads, expands, normalizes, defaults and validates the configuration at path.
// A missing file at the default path yields a default configuration rooted in the
// current directory; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	loadEnvFiles(filepath.Dir(path))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			cfg := &Config{baseDir: "."}
			return cfg, finalize(cfg)
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes YAML configuration (with ${VAR} expansion) and runs the
// normalize/default/validate passes. Relative paths resolve against the working directory.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	cfg := &Config{baseDir: "."}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").Fatal().Build()
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a fully defaulted configuration rooted at dir.
func Default(dir string) *Config {
	cfg := &Config{baseDir: dir}
	_ = finalize(cfg)
	return cfg
}

func finalize(cfg *Config) error {
	Normalize(cfg)
	ApplyDefaults(cfg)
	return Validate(cfg)
}

// BaseDir returns the directory relative paths resolve against.
func (c *Config) BaseDir() string {
	if c.baseDir == "" {
		return "."
	}
	return c.baseDir
}

// SetBaseDir overrides the directory relative paths resolve against.
func (c *Config) SetBaseDir(dir string) { c.baseDir = dir }

// Resolve joins a configured path with the base directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir(), p)
}

func (c *Config) SourceDir() string      { return c.Resolve(c.Paths.Source) }
func (c *Config) LayoutsDir() string     { return c.Resolve(c.Paths.Layouts) }
func (c *Config) StaticDir() string      { return c.Resolve(c.Paths.Static) }
func (c *Config) DestinationDir() string { return c.Resolve(c.Paths.Destination) }
func (c *Config) MetadataFile() string   { return c.Resolve(c.Paths.Metadata) }
func (c *Config) CacheDir() string       { return c.Resolve(c.Paths.Cache) }

// WatchPaths lists the inputs the dev server watches for changes.
func (c *Config) WatchPaths() []string {
	return []string{c.SourceDir(), c.LayoutsDir(), c.StaticDir(), c.MetadataFile()}
}
