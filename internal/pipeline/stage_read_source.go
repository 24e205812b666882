package pipeline

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// stageReadSource loads metadata, reads every content file under the source
// directory and collects static assets from the source and static directories.
func stageReadSource(ctx context.Context, bs *BuildState) error {
	meta, err := config.LoadMetadata(bs.Config.MetadataFile())
	if err != nil {
		return err
	}
	bs.Site = content.NewSite(bs.Config.SiteContext(meta))

	src := bs.Config.SourceDir()
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return errors.ContentError("source directory not found").WithContext("path", src).Build()
	}

	err = walkFiles(ctx, src, func(rel, full string) error {
		kind, ok := content.KindForPath(rel)
		if !ok {
			bs.Site.Assets = append(bs.Site.Assets, content.Asset{Path: rel, Source: full})
			return nil
		}
		// #nosec G304 -- path comes from walking the configured source directory
		raw, err := os.ReadFile(full)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "read source file").
				WithContext("path", rel).Fatal().Build()
		}
		if kind == content.KindHTML && !frontmatter.HasFrontmatter(raw) {
			bs.Site.Assets = append(bs.Site.Assets, content.Asset{Path: rel, Source: full})
			return nil
		}
		bs.Site.Add(&content.File{Path: rel, Kind: kind, Raw: raw})
		return nil
	})
	if err != nil {
		return err
	}

	if static := bs.Config.StaticDir(); static != "" {
		if info, err := os.Stat(static); err == nil && info.IsDir() {
			err = walkFiles(ctx, static, func(rel, full string) error {
				bs.Site.Assets = append(bs.Site.Assets, content.Asset{Path: rel, Source: full})
				return nil
			})
			if err != nil {
				return err
			}
		}
	}

	bs.Report.FilesRead = bs.Site.Len()
	bs.Report.AssetsFound = len(bs.Site.Assets)
	slog.Debug("Source read", logfields.BuildID(bs.Report.BuildID), logfields.Count(bs.Site.Len()),
		slog.Int("assets", len(bs.Site.Assets)))
	return nil
}

// walkFiles calls fn for each regular file under root with its slash path
// relative to root. Hidden files and directories are skipped.
func walkFiles(ctx context.Context, root string, fn func(rel, full string) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "walk directory").
				WithContext("path", p).Fatal().Build()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), p)
	})
}

// stageFrontmatter parses each file's frontmatter into Params and Meta and
// computes its fingerprint. A malformed block fails the build.
func stageFrontmatter(ctx context.Context, bs *BuildState) error {
	for _, f := range bs.Site.Files() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, body, err := frontmatter.Parse(f.Raw)
		if err != nil {
			return errors.WrapError(err, errors.CategoryContent, "invalid frontmatter").
				WithContext("path", f.Path).Fatal().Build()
		}
		meta, err := frontmatter.MetaFromFields(fields)
		if err != nil {
			return errors.WrapError(err, errors.CategoryContent, "invalid frontmatter field").
				WithContext("path", f.Path).Fatal().Build()
		}
		fp, err := frontmatter.Fingerprint(fields, body)
		if err != nil {
			return errors.WrapError(err, errors.CategoryContent, "fingerprint").
				WithContext("path", f.Path).Fatal().Build()
		}
		f.Params = fields
		f.Body = body
		f.Meta = meta
		f.Fingerprint = fp
	}
	return nil
}
