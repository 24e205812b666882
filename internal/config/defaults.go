package config

import "time"

// Default values applied when the corresponding field is empty.
const (
	DefaultSourceDir      = "src"
	DefaultLayoutsDir     = "layouts"
	DefaultStaticDir      = "static"
	DefaultDestination    = "build"
	DefaultMetadataFile   = "metadata.json"
	DefaultCacheDir       = ".cache"
	DefaultLayout         = "default"
	DefaultPattern        = ":dir/:slug"
	DefaultPostsPattern   = ":date/:slug"
	DefaultDateFormat     = "2006/01/02"
	DefaultFeedCollection = "posts"
	DefaultFeedPath       = "feed.xml"
	DefaultFeedLimit      = 20
	DefaultGistAPIURL     = "https://api.github.com"
	DefaultGistCacheTTL   = 24 * time.Hour
	DefaultGistTimeout    = 10 * time.Second
	DefaultServePort      = 4000
	DefaultPIDFile        = ".blogbuilder.pid"
	DefaultDebounce       = 300 * time.Millisecond
	DefaultPublishBranch  = "gh-pages"
	DefaultPublishRemote  = "origin"
	DefaultPublishMessage = "Publish site"
	DefaultAuthorName     = "blogbuilder"
	DefaultAuthorEmail    = "blogbuilder@localhost"
)

// defaultAppliers apply defaults per configuration domain, in order.
var defaultAppliers = []func(*Config){
	applyPathDefaults,
	applyBuildDefaults,
	applyPermalinkDefaults,
	applyCollectionDefaults,
	applyFeedDefaults,
	applyGistDefaults,
	applyServeDefaults,
	applyPublishDefaults,
}

// ApplyDefaults fills every empty field with its default.
func ApplyDefaults(c *Config) {
	for _, apply := range defaultAppliers {
		apply(c)
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func applyPathDefaults(c *Config) {
	setDefault(&c.Paths.Source, DefaultSourceDir)
	setDefault(&c.Paths.Layouts, DefaultLayoutsDir)
	setDefault(&c.Paths.Static, DefaultStaticDir)
	setDefault(&c.Paths.Destination, DefaultDestination)
	setDefault(&c.Paths.Metadata, DefaultMetadataFile)
	setDefault(&c.Paths.Cache, DefaultCacheDir)
}

func applyBuildDefaults(c *Config) {
	setDefault(&c.Build.DefaultLayout, DefaultLayout)
	if !c.Build.cleanSpecified {
		c.Build.Clean = true
	}
}

func applyPermalinkDefaults(c *Config) {
	setDefault(&c.Permalinks.Pattern, DefaultPattern)
	setDefault(&c.Permalinks.DateFormat, DefaultDateFormat)
	if c.Permalinks.Linksets == nil && len(c.Collections) == 0 {
		c.Permalinks.Linksets = map[string]string{DefaultFeedCollection: DefaultPostsPattern}
	}
}

// applyCollectionDefaults adds a "posts" collection when none is configured so
// the feed always has a source.
func applyCollectionDefaults(c *Config) {
	if len(c.Collections) == 0 {
		c.Collections = map[string]CollectionConfig{
			DefaultFeedCollection: {Pattern: "posts/**"},
		}
	}
	for name, coll := range c.Collections {
		if coll.SortBy == "" {
			coll.SortBy = SortByDate
		}
		c.Collections[name] = coll
	}
}

func applyFeedDefaults(c *Config) {
	setDefault(&c.Feed.Collection, DefaultFeedCollection)
	setDefault(&c.Feed.Path, DefaultFeedPath)
	if c.Feed.Limit == 0 {
		c.Feed.Limit = DefaultFeedLimit
	}
}

func applyGistDefaults(c *Config) {
	setDefault(&c.Gist.APIURL, DefaultGistAPIURL)
	if c.Gist.CacheTTL == 0 {
		c.Gist.CacheTTL = DefaultGistCacheTTL
	}
	if c.Gist.Concurrency == 0 {
		c.Gist.Concurrency = 4
	}
	if c.Gist.Timeout == 0 {
		c.Gist.Timeout = DefaultGistTimeout
	}
	if c.Gist.RetryBackoff == "" {
		c.Gist.RetryBackoff = RetryBackoffExponential
	}
	if c.Gist.RetryInitial == 0 {
		c.Gist.RetryInitial = 500 * time.Millisecond
	}
	if c.Gist.RetryMax == 0 {
		c.Gist.RetryMax = 5 * time.Second
	}
	if c.Gist.MaxRetries == 0 {
		c.Gist.MaxRetries = 2
	}
}

func applyServeDefaults(c *Config) {
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultServePort
	}
	setDefault(&c.Serve.PIDFile, DefaultPIDFile)
	if c.Serve.RebuildDebounce == 0 {
		c.Serve.RebuildDebounce = DefaultDebounce
	}
}

func applyPublishDefaults(c *Config) {
	setDefault(&c.Publish.Remote, DefaultPublishRemote)
	setDefault(&c.Publish.Branch, DefaultPublishBranch)
	setDefault(&c.Publish.Message, DefaultPublishMessage)
	setDefault(&c.Publish.AuthorName, DefaultAuthorName)
	setDefault(&c.Publish.AuthorEmail, DefaultAuthorEmail)
}
