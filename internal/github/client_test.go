package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Token: token, BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestFetchDiffFormatsPatches(t *testing.T) {
	c := newTestClient(t, "ghp_test", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/app/commits/abc123", r.URL.Path)
		assert.Equal(t, "Bearer ghp_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "sha": "abc123",
  "files": [
    {"filename": "main.go", "patch": "@@ -1 +1 @@\n-a\n+b"},
    {"filename": "logo.png"},
    {"filename": "README.md", "patch": "+docs"}
  ]
}`))
	})

	diff, err := c.FetchDiff(context.Background(), "octo/app", "abc123")
	require.NoError(t, err)
	assert.Equal(t, "File: main.go \nDiff:\n@@ -1 +1 @@\n-a\n+b\n\nFile: README.md \nDiff:\n+docs", diff)
}

func TestFetchDiffNoPatches(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sha":"abc123","files":[{"filename":"bin.dat"}]}`))
	})

	diff, err := c.FetchDiff(context.Background(), "octo/app", "abc123")
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestFetchDiffPropagatesAPIErrors(t *testing.T) {
	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})

	_, err := c.FetchDiff(context.Background(), "octo/app", "missing")
	require.Error(t, err)
	var ghErr *gh.ErrorResponse
	assert.ErrorAs(t, err, &ghErr)
}

func TestFetchDiffRejectsBadRepository(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	for _, repo := range []string{"", "octo", "/app", "octo/", "a/b/c"} {
		_, err := c.FetchDiff(context.Background(), repo, "abc")
		assert.ErrorIs(t, err, ErrInvalidRepository, repo)
	}
}
