package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestSerializeYAML_DeterministicOrderAndTrailingNewline(t *testing.T) {
	fields := map[string]any{"b": "two", "a": "one", "c": 3}

	out1, err := SerializeYAML(fields)
	require.NoError(t, err)
	out2, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, string(out1), string(out2))
	require.Equal(t, "a: one\nb: two\nc: 3\n", string(out1))
}

func TestSerializeYAML_NestedMapAndLists(t *testing.T) {
	fields := map[string]any{
		"z":    map[string]any{"y": 1, "x": 2},
		"tags": []string{"go", "blog"},
		"list": []any{"a", true},
	}
	out, err := SerializeYAML(fields)
	require.NoError(t, err)
	require.Equal(t, "list:\n  - a\n  - true\ntags: [go, blog]\nz:\n  x: 2\n  y: 1\n", string(out))
}
