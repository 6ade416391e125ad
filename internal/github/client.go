// Package github fetches commit diffs from the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const DefaultTimeout = 30 * time.Second

var ErrInvalidRepository = errors.New("repository must be owner/name")

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

// Client implements the commit pipeline's diff fetcher. Without a token it
// makes unauthenticated requests, which GitHub rate limits heavily.
type Client struct {
	gh *gh.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = cfg.Timeout
	}

	c := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url: %w", err)
		}
		c.BaseURL = u
	}
	return &Client{gh: c}, nil
}

// FetchDiff returns the per-file patches of one commit, formatted as
// "File: <name> \nDiff:\n<patch>" and joined by blank lines. Files without
// a textual patch are left out; a commit with none yields "".
func (c *Client) FetchDiff(ctx context.Context, repoFullName, sha string) (string, error) {
	owner, repo, ok := strings.Cut(repoFullName, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRepository, repoFullName)
	}

	commit, _, err := c.gh.Repositories.GetCommit(ctx, owner, repo, sha, &gh.ListOptions{})
	if err != nil {
		return "", fmt.Errorf("get commit %s@%s: %w", repoFullName, sha, err)
	}
	return FormatDiff(commit.Files), nil
}

// FormatDiff renders changed files the way the changelog prompt expects.
func FormatDiff(files []*gh.CommitFile) string {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		if f.GetPatch() == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("File: %s \nDiff:\n%s", f.GetFilename(), f.GetPatch()))
	}
	return strings.Join(parts, "\n\n")
}
