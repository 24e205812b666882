package publish

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

type fixture struct {
	cfg  *config.Config
	bare string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	bare := filepath.Join(t.TempDir(), "site.git")
	_, err := git.PlainInit(bare, true)
	require.NoError(t, err)

	cfg := config.Default(base)
	cfg.Publish.Remote = bare
	cfg.Publish.CNAME = "blog.example.com"
	require.NoError(t, os.MkdirAll(cfg.DestinationDir(), 0o755))
	return &fixture{cfg: cfg, bare: bare}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.cfg.DestinationDir(), filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) publisher() *Publisher {
	p := New(f.cfg)
	p.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func branchTip(t *testing.T, bare string) *object.Commit {
	t.Helper()
	repo, err := git.PlainOpen(bare)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	c, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	return c
}

func treeFiles(t *testing.T, c *object.Commit) map[string]string {
	t.Helper()
	tree, err := c.Tree()
	require.NoError(t, err)
	out := map[string]string{}
	require.NoError(t, tree.Files().ForEach(func(f *object.File) error {
		s, err := f.Contents()
		out[f.Name] = s
		return err
	}))
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestPublishCreatesPagesBranch(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.html", "<h1>home</h1>")
	f.write(t, "2024/06/01/hello/index.html", "<h1>hello</h1>")

	res, err := f.publisher().Publish(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.Pushed)
	assert.Equal(t, "gh-pages", res.Branch)

	tip := branchTip(t, f.bare)
	assert.Equal(t, res.Commit, tip.Hash.String())
	assert.Equal(t, "Publish site", tip.Message)
	assert.Equal(t, "blogbuilder", tip.Author.Name)
	assert.Zero(t, tip.NumParents())

	files := treeFiles(t, tip)
	assert.Equal(t, []string{".nojekyll", "2024/06/01/hello/index.html", "CNAME", "index.html"}, keys(files))
	assert.Equal(t, "blog.example.com\n", files["CNAME"])
	assert.Equal(t, "<h1>home</h1>", files["index.html"])
}

func TestPublishUnchangedIsNoop(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.html", "home")

	first, err := f.publisher().Publish(context.Background(), Options{})
	require.NoError(t, err)

	second, err := f.publisher().Publish(context.Background(), Options{})
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.False(t, second.Pushed)
	assert.Equal(t, first.Commit, second.Commit)
	assert.Equal(t, first.Commit, branchTip(t, f.bare).Hash.String())
}

func TestPublishExtendsHistoryAndDropsRemovedFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.html", "home")
	f.write(t, "old.html", "old")
	first, err := f.publisher().Publish(context.Background(), Options{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.cfg.DestinationDir(), "old.html")))
	f.write(t, "new.html", "new")
	second, err := f.publisher().Publish(context.Background(), Options{Message: "Add new post"})
	require.NoError(t, err)
	require.True(t, second.Changed)

	tip := branchTip(t, f.bare)
	assert.Equal(t, "Add new post", tip.Message)
	require.Equal(t, 1, tip.NumParents())
	assert.Equal(t, first.Commit, tip.ParentHashes[0].String())
	files := treeFiles(t, tip)
	assert.NotContains(t, files, "old.html")
	assert.Equal(t, "new", files["new.html"])
}

func TestPublishKeepsExistingRemoteHistory(t *testing.T) {
	f := newFixture(t)

	work := t.TempDir()
	repo, err := git.PlainInit(work, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(work, "legacy.html"), []byte("legacy"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("legacy.html")
	require.NoError(t, err)
	seed, err := wt.Commit("legacy site", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{f.bare}})
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	require.NoError(t, repo.Push(&git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(head.Name() + ":refs/heads/gh-pages")},
	}))

	f.write(t, "index.html", "home")
	res, err := f.publisher().Publish(context.Background(), Options{})
	require.NoError(t, err)
	require.True(t, res.Pushed)

	tip := branchTip(t, f.bare)
	require.Equal(t, 1, tip.NumParents())
	assert.Equal(t, seed, tip.ParentHashes[0])
	assert.NotContains(t, treeFiles(t, tip), "legacy.html")
}

func TestPublishDryRunDoesNotPush(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.html", "home")

	res, err := f.publisher().Publish(context.Background(), Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Pushed)
	assert.NotEmpty(t, res.Commit)

	repo, err := git.PlainOpen(f.bare)
	require.NoError(t, err)
	_, err = repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	assert.ErrorIs(t, err, plumbing.ErrReferenceNotFound)
}

func TestPublishRequiresOutput(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.RemoveAll(f.cfg.DestinationDir()))
	_, err := f.publisher().Publish(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestPublishUnknownRemoteName(t *testing.T) {
	f := newFixture(t)
	f.write(t, "index.html", "home")
	f.cfg.Publish.Remote = "upstream"
	_, err := f.publisher().Publish(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestResolveRemoteFromProjectRepository(t *testing.T) {
	f := newFixture(t)
	repo, err := git.PlainInit(f.cfg.BaseDir(), false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{"https://github.com/example/blog.git"}})
	require.NoError(t, err)

	f.cfg.Publish.Remote = "origin"
	url, err := resolveRemote(f.cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/example/blog.git", url)

	f.cfg.Publish.Remote = "git@github.com:example/blog.git"
	url, err = resolveRemote(f.cfg)
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:example/blog.git", url)
}

func TestAuthFor(t *testing.T) {
	t.Setenv(TokenEnv, "")
	assert.Nil(t, authFor("https://github.com/example/blog.git", ""))
	assert.Nil(t, authFor("git@github.com:example/blog.git", "cfg-token"))
	assert.Nil(t, authFor("/srv/git/blog.git", "cfg-token"))

	auth := authFor("https://github.com/example/blog.git", "cfg-token")
	require.IsType(t, &githttp.BasicAuth{}, auth)
	assert.Equal(t, "cfg-token", auth.(*githttp.BasicAuth).Password)

	t.Setenv(TokenEnv, "env-token")
	auth = authFor("https://github.com/example/blog.git", "cfg-token")
	assert.Equal(t, "env-token", auth.(*githttp.BasicAuth).Password)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil, "push", "x"))

	err := classify(stdErrors.New("non-fast-forward update: refs/heads/gh-pages"), "push", "x")
	assert.True(t, errors.HasCategory(err, errors.CategoryGit))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, true, ce.Context()["rejected"])

	err = classify(transport.ErrAuthenticationRequired, "push", "x")
	assert.True(t, errors.HasCategory(err, errors.CategoryAuth))
}
