package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, input, body)
}

func TestParse_YAML(t *testing.T) {
	input := []byte("---\ntitle: Hello\ndraft: true\nsocial:\n  github: me\n---\n# Body\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, true, fields["draft"])
	require.Equal(t, map[string]any{"github": "me"}, fields["social"])
	require.Equal(t, "# Body\n", string(body))
}

func TestParse_TOML(t *testing.T) {
	input := []byte("+++\ntitle = \"Hello\"\ntags = [\"go\", \"blog\"]\n+++\nBody\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, "Body\n", string(body))

	meta, err := MetaFromFields(fields)
	require.NoError(t, err)
	require.Equal(t, []string{"go", "blog"}, meta.Tags)
}

func TestParse_JSON(t *testing.T) {
	input := []byte(";;;\n{\"title\": \"Hello\", \"draft\": false}\n;;;\nBody\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, "Body\n", string(body))
}

func TestParse_BareJSONObject(t *testing.T) {
	input := []byte("{\n  \"title\": \"Hello\",\n  \"tags\": [\"go\"]\n}\nBody\n")

	fields, body, err := Parse(input)
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Contains(t, string(body), "Body")
	require.NotContains(t, string(body), "title")
}

func TestParse_EmptyBlock(t *testing.T) {
	fields, body, err := Parse([]byte("---\n---\nBody\n"))
	require.NoError(t, err)
	require.Empty(t, fields)
	require.Equal(t, "Body\n", string(body))
}

func TestParse_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParse_MalformedYAML_ReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle: [unclosed\n---\nBody\n"))
	require.Error(t, err)
}

func TestCompose_RoundTrip(t *testing.T) {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	doc, err := Compose(map[string]any{"title": "New Post", "date": date, "draft": true}, []byte("Write here.\n"))
	require.NoError(t, err)
	require.Equal(t, "---\ndate: 2024-03-01T09:30:00Z\ndraft: true\ntitle: New Post\n---\nWrite here.\n", string(doc))

	fields, body, err := Parse(doc)
	require.NoError(t, err)
	meta, err := MetaFromFields(fields)
	require.NoError(t, err)
	require.Equal(t, "New Post", meta.Title)
	require.True(t, meta.Draft)
	require.True(t, meta.Date.Equal(date))
	require.Equal(t, "Write here.\n", string(body))
}
