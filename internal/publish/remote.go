package publish

import (
	stdErrors "errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
)

// TokenEnv is checked before publish.token for HTTPS push credentials.
const TokenEnv = "GITHUB_TOKEN"

var scpLike = regexp.MustCompile(`^[\w.-]+@[\w.-]+:`)

// resolveRemote turns publish.remote into a URL. The value may be a URL, a
// local repository path, or the name of a remote of the repository holding
// the project.
func resolveRemote(cfg *config.Config) (string, error) {
	r := cfg.Publish.Remote
	if strings.Contains(r, "://") || scpLike.MatchString(r) {
		return r, nil
	}
	if looksLikePath(r) {
		p := cfg.Resolve(r)
		if _, err := os.Stat(p); err == nil {
			return filepath.Abs(p)
		}
	}
	repo, err := git.PlainOpenWithOptions(cfg.BaseDir(), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "publish remote is not a URL and the project is not a git repository").
			WithContext("remote", r).
			Build()
	}
	remote, err := repo.Remote(r)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryConfig, "unknown publish remote").
			WithContext("remote", r).
			Build()
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.ConfigError("publish remote has no URL").WithContext("remote", r).Build()
	}
	return urls[0], nil
}

func looksLikePath(r string) bool {
	return filepath.IsAbs(r) || strings.HasPrefix(r, ".") || strings.ContainsRune(r, filepath.Separator)
}

// authFor returns token credentials for HTTP(S) remotes, or nil.
func authFor(url, configured string) transport.AuthMethod {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil
	}
	token := os.Getenv(TokenEnv)
	if token == "" {
		token = configured
	}
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "token", Password: token}
}

// classify wraps a go-git failure into a git or auth error.
func classify(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsClassified(err); ok {
		return err
	}
	if stdErrors.Is(err, transport.ErrAuthenticationRequired) || stdErrors.Is(err, transport.ErrAuthorizationFailed) {
		return errors.WrapError(err, errors.CategoryAuth, "git authentication failed").
			UserAction().
			WithContext("op", op).
			WithContext("url", url).
			Build()
	}
	b := errors.WrapError(err, errors.CategoryGit, "git "+op+" failed").
		WithContext("op", op).
		WithContext("url", url)
	l := strings.ToLower(err.Error())
	switch {
	case strings.Contains(l, "non-fast-forward"), strings.Contains(l, "rejected"):
		b = b.WithContext("rejected", true).Fatal()
	case strings.Contains(l, "timeout"), strings.Contains(l, "connection reset"), strings.Contains(l, "remote hung up"):
		b = b.Retryable()
	}
	return b.Build()
}
