// Package publish commits a built site to a pages branch and pushes it.
package publish

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"os"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/workspace"
)

const remoteName = "origin"

// Options adjust a single publish.
type Options struct {
	// Message overrides publish.message.
	Message string
	// DryRun commits in the scratch repository but does not push.
	DryRun bool
}

// Result describes what a publish did.
type Result struct {
	Remote  string
	Branch  string
	Commit  string
	Changed bool
	Pushed  bool
}

// Publisher pushes cfg's destination directory to the configured pages branch.
type Publisher struct {
	cfg *config.Config
	now func() time.Time
}

// New returns a Publisher for cfg.
func New(cfg *config.Config) *Publisher {
	return &Publisher{cfg: cfg, now: time.Now}
}

// Publish replaces the pages branch tree with the build output. Existing
// history is fetched and extended. When the output matches the branch tip
// nothing is committed or pushed.
func (p *Publisher) Publish(ctx context.Context, opts Options) (*Result, error) {
	out := p.cfg.DestinationDir()
	if fi, err := os.Stat(out); err != nil || !fi.IsDir() {
		return nil, errors.ValidationError("build output missing; run a build first").
			WithContext("path", out).
			Build()
	}
	url, err := resolveRemote(p.cfg)
	if err != nil {
		return nil, err
	}
	branch := p.cfg.Publish.Branch
	res := &Result{Remote: url, Branch: branch}
	auth := authFor(url, p.cfg.Publish.Token)

	ws := workspace.NewManager(p.cfg.CacheDir(), "publish")
	if err := ws.Create(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "create publish workspace").Fatal().Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to clean publish workspace", logfields.Error(err))
		}
	}()

	repo, err := git.PlainInit(ws.Path(), false)
	if err != nil {
		return nil, classify(err, "init", url)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: remoteName, URLs: []string{url}}); err != nil {
		return nil, classify(err, "remote", url)
	}
	if err := p.checkoutBranch(ctx, repo, branch, auth); err != nil {
		return nil, classify(err, "fetch", url)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, classify(err, "worktree", url)
	}
	if err := replaceTree(ws.Path(), out, p.cfg.Publish.CNAME); err != nil {
		return nil, err
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, classify(err, "add", url)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, classify(err, "status", url)
	}
	if status.IsClean() {
		if head, err := repo.Head(); err == nil {
			res.Commit = head.Hash().String()
		}
		slog.Info("Published site unchanged; nothing to push", logfields.Branch(branch), logfields.Remote(url))
		return res, nil
	}

	msg := opts.Message
	if msg == "" {
		msg = p.cfg.Publish.Message
	}
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{
			Name:  p.cfg.Publish.AuthorName,
			Email: p.cfg.Publish.AuthorEmail,
			When:  p.now(),
		},
	})
	if err != nil {
		return nil, classify(err, "commit", url)
	}
	res.Commit = hash.String()
	res.Changed = true

	if opts.DryRun {
		slog.Info("Dry run; not pushing", logfields.Branch(branch), logfields.Commit(res.Commit[:8]), slog.Int("changes", len(status)))
		return res, nil
	}

	ref := plumbing.NewBranchReferenceName(branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref + ":" + ref)},
		Auth:       auth,
	})
	if err != nil && !stdErrors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil, classify(err, "push", url)
	}
	res.Pushed = true
	slog.Info("Published site", logfields.Branch(branch), logfields.Remote(url), logfields.Commit(res.Commit[:8]))
	return res, nil
}

// checkoutBranch points HEAD at branch, starting from the remote tip when
// the remote has one and as an orphan otherwise.
func (p *Publisher) checkoutBranch(ctx context.Context, repo *git.Repository, branch string, auth transport.AuthMethod) error {
	ref := plumbing.NewBranchReferenceName(branch)
	remote, err := repo.Remote(remoteName)
	if err != nil {
		return err
	}
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: auth})
	if err != nil && !stdErrors.Is(err, transport.ErrEmptyRemoteRepository) {
		return err
	}
	found := false
	for _, r := range refs {
		if r.Name() == ref {
			found = true
			break
		}
	}
	if !found {
		slog.Info("Pages branch does not exist yet; starting fresh history", logfields.Branch(branch))
		return repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, ref))
	}

	remoteRef := plumbing.NewRemoteReferenceName(remoteName, branch)
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec("+" + ref + ":" + remoteRef)},
		Auth:       auth,
	})
	if err != nil && !stdErrors.Is(err, git.NoErrAlreadyUpToDate) {
		return err
	}
	tip, err := repo.Reference(remoteRef, true)
	if err != nil {
		return err
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(ref, tip.Hash())); err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: ref, Force: true})
}
