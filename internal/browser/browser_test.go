package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

func TestCommand(t *testing.T) {
	url := "http://localhost:4000/"
	cases := []struct {
		goos string
		name string
		args []string
	}{
		{"linux", "xdg-open", []string{url}},
		{"freebsd", "xdg-open", []string{url}},
		{"darwin", "open", []string{url}},
		{"windows", "rundll32", []string{"url.dll,FileProtocolHandler", url}},
	}
	for _, tc := range cases {
		name, args := Command(tc.goos, url)
		assert.Equal(t, tc.name, name, tc.goos)
		assert.Equal(t, tc.args, args, tc.goos)
	}
}

func TestOpen(t *testing.T) {
	orig := start
	t.Cleanup(func() { start = orig })

	var got []string
	start = func(name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}
	require.NoError(t, Open("http://localhost:4000/"))
	assert.Contains(t, got, "http://localhost:4000/")

	start = func(string, ...string) error { return errors.New("not found") }
	err := Open("http://localhost:4000/")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}
