package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":"From JSON","social":{"github":"someone"}}`), 0o600))

	meta, err := LoadMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "From JSON", meta["title"])
	assert.Equal(t, map[string]any{"github": "someone"}, meta["social"])
}

func TestLoadMetadataMissingFile(t *testing.T) {
	meta, err := LoadMetadata(filepath.Join(t.TempDir(), "metadata.json"))
	require.NoError(t, err)
	assert.Empty(t, meta)
}

func TestLoadMetadataInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title":`), 0o600))
	_, err := LoadMetadata(path)
	require.Error(t, err)
}

func TestSiteContextMetadataWins(t *testing.T) {
	cfg := Default(".")
	cfg.Site.Title = "Config Title"
	cfg.Site.Author = "Config Author"

	ctx := cfg.SiteContext(map[string]any{"title": "Meta Title", "extra": 1.0})
	assert.Equal(t, "Meta Title", ctx["title"])
	assert.Equal(t, "Config Author", ctx["author"])
	assert.Equal(t, 1.0, ctx["extra"])
	assert.NotContains(t, ctx, "description", "empty config fields are omitted")
}
