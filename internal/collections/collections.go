// Package collections groups content files into ordered, named lists.
package collections

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// Definition is a compiled collection configuration.
type Definition struct {
	Name    string
	Pattern glob.Glob
	SortBy  config.SortBy
	Reverse bool
	Limit   int
}

// Compile turns configured collections into definitions, sorted by name.
func Compile(cfg map[string]config.CollectionConfig) ([]Definition, error) {
	names := make([]string, 0, len(cfg))
	for name := range cfg {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		c := cfg[name]
		def := Definition{Name: name, SortBy: c.SortBy, Reverse: c.IsReversed(), Limit: c.Limit}
		if def.SortBy == "" {
			def.SortBy = config.SortByDate
		}
		if c.Pattern != "" {
			g, err := glob.Compile(c.Pattern, '/')
			if err != nil {
				return nil, fmt.Errorf("collection %s: invalid pattern %q: %w", name, c.Pattern, err)
			}
			def.Pattern = g
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Assign fills site.Collections and each file's Collections, Prev and Next.
// Files naming an unconfigured collection in frontmatter get an ad-hoc
// collection sorted by date, newest first.
func Assign(site *content.Site, defs []Definition) {
	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.Name] = true
	}
	var adhoc []string
	for _, f := range site.Files() {
		f.Collections = nil
		f.Prev, f.Next = nil, nil
		for _, name := range f.Meta.Collections {
			if !known[name] {
				known[name] = true
				adhoc = append(adhoc, name)
			}
		}
	}
	for _, name := range adhoc {
		defs = append(defs, Definition{Name: name, SortBy: config.SortByDate, Reverse: true})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	site.Collections = make(map[string][]*content.File, len(defs))
	for _, def := range defs {
		var members []*content.File
		for _, f := range site.Files() {
			if def.matches(f) {
				members = append(members, f)
			}
		}
		Sort(members, def.SortBy, def.Reverse)
		if def.Limit > 0 && len(members) > def.Limit {
			members = members[:def.Limit]
		}
		for i, f := range members {
			f.Collections = append(f.Collections, def.Name)
			// Neighbours come from the first collection (by name) a file joins.
			if len(f.Collections) == 1 {
				if i > 0 {
					f.Prev = members[i-1]
				}
				if i+1 < len(members) {
					f.Next = members[i+1]
				}
			}
		}
		site.Collections[def.Name] = members
	}
}

func (d Definition) matches(f *content.File) bool {
	if d.Pattern != nil && d.Pattern.Match(f.Path) {
		return true
	}
	for _, name := range f.Meta.Collections {
		if name == d.Name {
			return true
		}
	}
	return false
}

// Sort orders files by key. Undated files always sort after dated ones when
// sorting by date; ties break on path.
func Sort(files []*content.File, by config.SortBy, reverse bool) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		switch by {
		case config.SortByTitle:
			ta, tb := strings.ToLower(a.Meta.Title), strings.ToLower(b.Meta.Title)
			if ta != tb {
				return (ta < tb) != reverse
			}
		case config.SortByPath:
			if a.Path != b.Path {
				return (a.Path < b.Path) != reverse
			}
		default:
			da, db := a.Meta.HasDate(), b.Meta.HasDate()
			if da != db {
				return da
			}
			if da && !a.Meta.Date.Equal(b.Meta.Date) {
				return a.Meta.Date.Before(b.Meta.Date) != reverse
			}
		}
		return a.Path < b.Path
	})
}
