// Package gist replaces gist placeholders in rendered pages with the gist's
// source, fetched from the GitHub API.
package gist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// maxBody bounds API and raw responses.
const maxBody = 10 << 20

// validID matches GitHub gist identifiers.
var validID = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// Gist is the subset of the GitHub gist resource the embedder needs.
type Gist struct {
	ID      string          `json:"id"`
	HTMLURL string          `json:"html_url"`
	Files   map[string]File `json:"files"`
}

// File is one file of a gist.
type File struct {
	Filename  string `json:"filename"`
	Language  string `json:"language"`
	RawURL    string `json:"raw_url"`
	Truncated bool   `json:"truncated"`
	Content   string `json:"content"`
}

// Fetcher retrieves a gist by ID.
type Fetcher interface {
	Fetch(ctx context.Context, id string) (*Gist, error)
}

// Client talks to the GitHub gists API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client from configuration. A nil httpClient gets one
// with the configured timeout.
func NewClient(cfg config.GistConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		token:   cfg.Token,
		http:    httpClient,
	}
}

// Fetch gets a gist. Truncated files are completed from their raw URL.
func (c *Client) Fetch(ctx context.Context, id string) (*Gist, error) {
	if !validID.MatchString(id) {
		return nil, errors.ContentError("invalid gist id").WithContext("gist_id", id).Build()
	}
	body, err := c.get(ctx, id, c.baseURL+"/gists/"+id, "application/vnd.github+json")
	if err != nil {
		return nil, err
	}
	var g Gist
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, errors.WrapError(err, errors.CategoryGist, "decode gist response").
			WithContext("gist_id", id).Fatal().Build()
	}
	if g.ID == "" {
		g.ID = id
	}
	for name, f := range g.Files {
		if !f.Truncated || f.RawURL == "" {
			continue
		}
		raw, err := c.get(ctx, id, f.RawURL, "text/plain")
		if err != nil {
			return nil, err
		}
		f.Content = string(raw)
		f.Truncated = false
		g.Files[name] = f
	}
	return &g, nil
}

func (c *Client) get(ctx context.Context, id, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryGist, "build gist request").
			WithContext("gist_id", id).Fatal().Build()
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "blogbuilder/"+version.Version)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "fetch gist").
			WithContext("gist_id", id).
			WithContext("url", url).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "read gist response").
			WithContext("gist_id", id).Retryable().Build()
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(id, resp, body)
	}
	return body, nil
}

func statusError(id string, resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("gist request returned %d", resp.StatusCode)
	if apiMsg := apiMessage(body); apiMsg != "" {
		msg += ": " + apiMsg
	}
	var b *errors.ErrorBuilder
	switch {
	case resp.StatusCode == http.StatusNotFound:
		b = errors.NewError(errors.CategoryGist, msg).Fatal()
	case resp.StatusCode == http.StatusUnauthorized:
		b = errors.AuthError(msg)
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0",
		resp.StatusCode == http.StatusTooManyRequests:
		b = errors.NewError(errors.CategoryGist, msg).RateLimit()
	case resp.StatusCode == http.StatusForbidden:
		b = errors.AuthError(msg)
	case resp.StatusCode >= 500:
		b = errors.GistError(msg)
	default:
		b = errors.NewError(errors.CategoryGist, msg).Fatal()
	}
	return b.WithContext("gist_id", id).WithContext("status", resp.StatusCode).Build()
}

func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return payload.Message
}
