package publish

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// replaceTree empties the worktree at dir (keeping .git) and copies src into
// it, adding .nojekyll and, when cname is set, CNAME.
func replaceTree(dir, src, cname string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fsError(err, "read publish worktree", dir)
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fsError(err, "clear publish worktree", dir)
		}
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, target)
	})
	if err != nil {
		return fsError(err, "copy build output", src)
	}

	if err := os.WriteFile(filepath.Join(dir, ".nojekyll"), nil, 0o644); err != nil {
		return fsError(err, "write .nojekyll", dir)
	}
	if cname != "" {
		if err := os.WriteFile(filepath.Join(dir, "CNAME"), []byte(cname+"\n"), 0o644); err != nil {
			return fsError(err, "write CNAME", dir)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func fsError(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryFileSystem, msg).
		WithContext("path", path).
		Fatal().
		Build()
}
