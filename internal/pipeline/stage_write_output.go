package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/linkverify"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// output is one file of the finished site: page or generated bytes, or a
// static asset copied from source.
type output struct {
	rel    string
	data   []byte
	source string
	page   bool
}

// stageWriteOutput claims every output path, then writes pages, generated
// files and static assets. With clean enabled the site is written to a
// staging directory beside the destination and swapped in, so a failed build
// leaves the previous output in place.
func stageWriteOutput(ctx context.Context, bs *BuildState) error {
	plan, err := planOutputs(bs)
	if err != nil {
		return err
	}

	dest := bs.Config.DestinationDir()
	if bs.Config.Build.Clean {
		absDest, err := checkCleanable(dest, bs.Config.BaseDir(), bs.Config.SourceDir())
		if err != nil {
			return err
		}
		staging, err := newStagingDir(absDest)
		if err != nil {
			return err
		}
		if err := writeOutputs(ctx, bs, plan, staging); err != nil {
			_ = os.RemoveAll(staging)
			return err
		}
		if err := swapDir(staging, absDest); err != nil {
			_ = os.RemoveAll(staging)
			return err
		}
	} else {
		if err := os.MkdirAll(dest, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create destination").
				WithContext("path", dest).Fatal().Build()
		}
		if err := writeOutputs(ctx, bs, plan, dest); err != nil {
			return err
		}
	}

	bs.recorder().AddPagesWritten(bs.Report.PagesWritten)
	slog.Info("Site written", logfields.BuildID(bs.Report.BuildID), logfields.Path(dest),
		slog.Int("pages", bs.Report.PagesWritten), slog.Int("assets", bs.Report.AssetsWritten))
	return nil
}

// planOutputs lists every output in write order. Two outputs claiming the
// same path fail the build before anything is written.
func planOutputs(bs *BuildState) ([]output, error) {
	owners := make(map[string]string) // output path -> what produced it
	claim := func(out, by string) error {
		if prev, ok := owners[out]; ok {
			return errors.ContentError("duplicate output path").
				WithContext("output", out).
				WithContext("path", by).
				WithContext("conflicts_with", prev).
				Build()
		}
		owners[out] = by
		return nil
	}

	plan := make([]output, 0, bs.Site.Len()+len(bs.Generated)+len(bs.Site.Assets))
	for _, f := range bs.Site.Files() {
		if err := claim(f.OutputPath, f.Path); err != nil {
			return nil, err
		}
		plan = append(plan, output{rel: f.OutputPath, data: f.Output, page: true})
	}

	generated := make([]string, 0, len(bs.Generated))
	for p := range bs.Generated {
		generated = append(generated, p)
	}
	sort.Strings(generated)
	for _, p := range generated {
		if err := claim(p, "generated"); err != nil {
			return nil, err
		}
		plan = append(plan, output{rel: p, data: bs.Generated[p]})
	}

	for _, a := range bs.Site.Assets {
		if err := claim(a.Path, a.Source); err != nil {
			return nil, err
		}
		plan = append(plan, output{rel: a.Path, source: a.Source})
	}
	return plan, nil
}

func writeOutputs(ctx context.Context, bs *BuildState, plan []output, dir string) error {
	for _, o := range plan {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.source != "" {
			if err := copyFile(o.source, filepath.Join(dir, filepath.FromSlash(o.rel))); err != nil {
				return errors.WrapError(err, errors.CategoryFileSystem, "copy asset").
					WithContext("path", o.rel).Fatal().Build()
			}
			bs.Report.AssetsWritten++
			continue
		}
		if err := writeFile(dir, o.rel, o.data); err != nil {
			return err
		}
		if o.page {
			bs.Report.PagesWritten++
		}
	}
	return nil
}

// newStagingDir creates an empty directory next to dest, on the same
// filesystem so it can be renamed over it.
func newStagingDir(dest string) (string, error) {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create destination parent").
			WithContext("path", parent).Fatal().Build()
	}
	dir, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-staging-*")
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "create staging directory").
			WithContext("path", parent).Fatal().Build()
	}
	if err := os.Chmod(dir, 0o750); err != nil {
		_ = os.RemoveAll(dir)
		return "", errors.WrapError(err, errors.CategoryFileSystem, "prepare staging directory").
			WithContext("path", dir).Fatal().Build()
	}
	return dir, nil
}

// swapDir moves staging to dest and removes what dest held before. If the
// final rename fails the previous tree is put back.
func swapDir(staging, dest string) error {
	previous := ""
	if _, err := os.Lstat(dest); err == nil {
		previous = staging + "-previous"
		if err := os.Rename(dest, previous); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "move previous output aside").
				WithContext("path", dest).Fatal().Build()
		}
	} else if !os.IsNotExist(err) {
		return errors.WrapError(err, errors.CategoryFileSystem, "stat destination").
			WithContext("path", dest).Fatal().Build()
	}
	if err := os.Rename(staging, dest); err != nil {
		if previous != "" {
			_ = os.Rename(previous, dest)
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "install new output").
			WithContext("path", dest).Fatal().Build()
	}
	if previous != "" {
		if err := os.RemoveAll(previous); err != nil {
			slog.Warn("Failed to remove previous output", logfields.Path(previous), logfields.Error(err))
		}
	}
	return nil
}

// checkCleanable resolves dest and refuses paths whose replacement would take
// the project or its sources with it.
func checkCleanable(dest, baseDir, sourceDir string) (string, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	for _, protected := range []string{baseDir, sourceDir} {
		absProtected, err := filepath.Abs(protected)
		if err != nil {
			return "", err
		}
		if absDest == absProtected || isWithin(absProtected, absDest) {
			return "", errors.ConfigError("refusing to clean destination").
				WithContext("path", dest).
				WithContext("contains", protected).
				Build()
		}
	}
	if absDest == filepath.Dir(absDest) {
		return "", errors.ConfigError("refusing to clean filesystem root").WithContext("path", dest).Build()
	}
	return absDest, nil
}

// isWithin reports whether child lies inside parent.
func isWithin(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func writeFile(dest, rel string, data []byte) error {
	full := filepath.Join(dest, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", rel).Fatal().Build()
	}
	// #nosec G306 -- site output is public
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output").
			WithContext("path", rel).Fatal().Build()
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302,G304 -- site output is public; dst is under the destination
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// stageVerifyLinks reports internal links without a target. It never fails
// the build.
func stageVerifyLinks(ctx context.Context, bs *BuildState) error {
	broken, err := linkverify.NewVerifier(bs.Config.DestinationDir(), bs.siteURL()).Verify(ctx)
	if err != nil {
		return NewWarnStageError(StageVerifyLinks, err)
	}
	bs.Report.BrokenLinks = broken
	if len(broken) == 0 {
		return nil
	}
	for _, b := range broken {
		slog.Warn("Broken internal link", logfields.Path(b.Page), logfields.URL(b.URL))
	}
	return NewWarnStageError(StageVerifyLinks, fmt.Errorf("%d broken internal links", len(broken)))
}
