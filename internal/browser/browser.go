// Package browser opens URLs in the user's default browser.
package browser

import (
	"os/exec"
	"runtime"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// start launches a command without waiting for it.
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Command returns the platform opener for url.
func Command(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}

// Open asks the platform opener to show url.
func Open(url string) error {
	name, args := Command(runtime.GOOS, url)
	if err := start(name, args...); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "open browser").
			WithContext("command", name).
			WithContext("url", url).
			Build()
	}
	return nil
}
