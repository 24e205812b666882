// Package layouts loads page layouts and renders pages through them.
//
// A layout is any .html (html/template) or .pug file directly inside the
// layouts directory; its name is the file name without extension. Files in
// the partials subdirectory are parsed into every layout and invoked with
// {{ template "name" . }}.
package layouts

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Joker/jade"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// PartialsDir is the layouts subdirectory holding shared fragments.
const PartialsDir = "partials"

// Data is the context every layout and Pug page executes with.
type Data struct {
	Site        map[string]any
	Page        *content.File
	Collections map[string][]*content.File
	Content     template.HTML
	BuildTime   time.Time
}

type source struct {
	name string
	text string
}

// Set holds the parsed layouts of a site.
type Set struct {
	dir           string
	defaultLayout string
	funcs         template.FuncMap
	partials      []source
	templates     map[string]*template.Template
}

// Load parses every layout under dir. siteURL feeds the absURL helper.
func Load(dir, defaultLayout, siteURL string) (*Set, error) {
	s := &Set{
		dir:           dir,
		defaultLayout: Name(defaultLayout),
		funcs:         Funcs(siteURL),
		templates:     map[string]*template.Template{},
	}

	partials, err := readSources(filepath.Join(dir, PartialsDir))
	if err != nil {
		return nil, err
	}
	s.partials = partials

	layouts, err := readSources(dir)
	if err != nil {
		return nil, err
	}
	for _, l := range layouts {
		t, err := s.parse(l.name, l.text)
		if err != nil {
			return nil, err
		}
		s.templates[l.name] = t
	}
	return s, nil
}

// readSources reads the layout files directly inside dir. A missing
// directory yields nothing.
func readSources(dir string) ([]source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "read layouts directory").
			WithContext("path", dir).Fatal().Build()
	}
	var out []source
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".html" && ext != ".pug" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		// #nosec G304 -- layout paths come from the configured layouts directory
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "read layout").
				WithContext("path", p).Fatal().Build()
		}
		text, err := Compile(e.Name(), raw)
		if err != nil {
			return nil, err
		}
		out = append(out, source{name: Name(e.Name()), text: text})
	}
	return out, nil
}

// Compile returns html/template source for a layout file. Pug is translated
// by jade; everything else is returned as is.
func Compile(fname string, raw []byte) (string, error) {
	if !strings.EqualFold(filepath.Ext(fname), ".pug") {
		return string(raw), nil
	}
	text, err := jade.Parse(fname, raw)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "compile pug").
			WithContext("path", fname).Fatal().Build()
	}
	return text, nil
}

func (s *Set) parse(name, text string) (*template.Template, error) {
	t := template.New(name).Funcs(s.funcs)
	for _, p := range s.partials {
		if _, err := t.New(p.name).Parse(p.text); err != nil {
			return nil, errors.WrapError(err, errors.CategoryTemplate, "parse partial").
				WithContext("partial", p.name).Fatal().Build()
		}
	}
	if _, err := t.Parse(text); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "parse layout").
			WithContext("layout", name).Fatal().Build()
	}
	return t, nil
}

// Name normalizes a layout reference: "post.pug", "post.html" and "post" are
// the same layout.
func Name(ref string) string {
	base := filepath.Base(strings.TrimSpace(ref))
	switch strings.ToLower(filepath.Ext(base)) {
	case ".html", ".pug":
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// Names lists the loaded layouts.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.templates))
	for n := range s.templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Has reports whether a layout exists.
func (s *Set) Has(ref string) bool {
	_, ok := s.templates[Name(ref)]
	return ok
}

// LayoutFor picks the layout named in frontmatter, falling back to the default.
func (s *Set) LayoutFor(f *content.File) string {
	if f.Meta.Layout != "" {
		return Name(f.Meta.Layout)
	}
	return s.defaultLayout
}

// Render executes the named layout.
func (s *Set) Render(ref string, data Data) ([]byte, error) {
	name := Name(ref)
	t, ok := s.templates[name]
	if !ok {
		return nil, errors.TemplateError("layout not found").
			WithContext("layout", name).
			WithContext("dir", s.dir).
			Build()
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "render layout").
			WithContext("layout", name).Fatal().Build()
	}
	return buf.Bytes(), nil
}

// RenderPage renders a Pug or HTML page body as a template with the page
// context, making partials and helpers available to it.
func (s *Set) RenderPage(f *content.File, data Data) (template.HTML, error) {
	text, err := Compile(f.Path, f.Body)
	if err != nil {
		return "", err
	}
	t, err := s.parse(f.Path, text)
	if err != nil {
		return "", fmt.Errorf("page %s: %w", f.Path, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.WrapError(err, errors.CategoryTemplate, "render page").
			WithContext("path", f.Path).Fatal().Build()
	}
	// #nosec G203 -- output of html/template is already escaped
	return template.HTML(buf.String()), nil
}
