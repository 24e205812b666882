package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing files"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force, root.Stdout())
}

// RunInit writes the example project next to configPath. Existing files
// are left alone unless force is set.
func RunInit(configPath string, force bool, out io.Writer) error {
	dir := filepath.Dir(configPath)
	files := map[string]string{filepath.Base(configPath): scaffoldConfig}
	for rel, body := range scaffoldFiles {
		files[filepath.FromSlash(rel)] = body
	}
	names := make([]string, 0, len(files))
	for rel := range files {
		names = append(names, rel)
	}
	sort.Strings(names)

	if !force {
		for _, rel := range names {
			if _, err := os.Stat(filepath.Join(dir, rel)); err == nil {
				return errors.ValidationError("refusing to overwrite existing file; use --force").
					WithContext("path", filepath.Join(dir, rel)).
					Build()
			}
		}
	}

	_, _ = fmt.Fprintf(out, "Initializing blog in %s\n", dir)
	for _, rel := range names {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create directory").WithContext("path", p).Fatal().Build()
		}
		if err := os.WriteFile(p, []byte(files[rel]), 0o644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "write file").WithContext("path", p).Fatal().Build()
		}
		_, _ = fmt.Fprintf(out, "  wrote %s\n", rel)
	}
	_, _ = fmt.Fprintln(out, "Run 'blogbuilder serve' to preview the site.")
	return nil
}
