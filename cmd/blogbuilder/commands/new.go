package commands

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/permalink"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Title  []string `arg:"" help:"Post title"`
	Draft  bool     `help:"Mark the post as a draft"`
	Dir    string   `help:"Directory under the source root" default:"posts"`
	Layout string   `help:"Layout for the post" default:"post"`

	now func() time.Time `kong:"-"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	now := time.Now
	if n.now != nil {
		now = n.now
	}
	p, err := n.create(cfg, now())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(root.Stdout(), "Created %s\n", p)
	return nil
}

func (n *NewCmd) create(cfg *config.Config, now time.Time) (string, error) {
	title := displayTitle(strings.Join(n.Title, " "))
	slug := permalink.Slugify(title)
	if slug == "" {
		return "", errors.ValidationError("post title must contain letters or digits").Build()
	}
	rel := path.Join(n.Dir, slug+".md")
	full := filepath.Join(cfg.SourceDir(), filepath.FromSlash(rel))
	if _, err := os.Stat(full); err == nil {
		return "", errors.ValidationError("post already exists").WithContext("path", full).Build()
	}

	fields := map[string]any{
		"title": title,
		"date":  now.Truncate(time.Second),
		"tags":  []string{},
	}
	if n.Layout != "" {
		fields["layout"] = n.Layout
	}
	if n.Draft {
		fields["draft"] = true
	}
	doc, err := frontmatter.Compose(fields, []byte("\nWrite here.\n\n<!-- more -->\n"))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryContent, "compose frontmatter").Build()
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create post directory").WithContext("path", full).Fatal().Build()
	}
	if err := os.WriteFile(full, doc, 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "write post").WithContext("path", full).Fatal().Build()
	}
	return full, nil
}

// displayTitle title-cases input typed as a slug or in all lower case;
// anything else is kept as written.
func displayTitle(s string) string {
	s = strings.TrimSpace(s)
	if s != strings.ToLower(s) {
		return s
	}
	s = strings.Join(strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' }), " ")
	return cases.Title(language.English).String(s)
}
