package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/scribe-gw/internal/api"
	"github.com/mattjoyce/scribe-gw/internal/client"
	"github.com/mattjoyce/scribe-gw/internal/commits"
	"github.com/mattjoyce/scribe-gw/internal/events"
	"github.com/mattjoyce/scribe-gw/internal/github"
	"github.com/mattjoyce/scribe-gw/internal/job"
	"github.com/mattjoyce/scribe-gw/internal/llm"
	"github.com/mattjoyce/scribe-gw/internal/log"
	"github.com/mattjoyce/scribe-gw/internal/notify"
	"github.com/mattjoyce/scribe-gw/internal/storage"
	"github.com/mattjoyce/scribe-gw/internal/webhook"
)

// fakeLLM answers chat completions. README prompts get a fenced document,
// commit prompts get a one-line summary.
func fakeLLM(t *testing.T) *llm.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotEmpty(t, req.Messages)

		content := "Adds a greeting."
		if strings.Contains(req.Messages[0].Content, "Project Name:") {
			content = "```markdown\n# scribe\n\nGenerates docs.\n```"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "e2e",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	c, err := llm.NewClient(llm.Config{BaseURL: srv.URL + "/", APIKey: "sk-e2e", Model: "e2e", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestReadmeJobThroughAPI(t *testing.T) {
	log.SetupWriter(io.Discard, "error", "json")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "scribe.db"))
	require.NoError(t, err)
	defer db.Close()

	hub := events.NewHub(64)
	store := job.NewSQLStore(db)
	engine := job.NewEngine(store, fakeLLM(t), job.WithPublisher(hub))
	runner := job.NewRunner(store, engine, 2, 20*time.Millisecond)

	runCtx, stopRunner := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = runner.Start(runCtx)
	}()
	defer func() {
		stopRunner()
		<-done
	}()

	apiServer := api.New(api.Config{APIKey: "e2e-key"}, store, runner, hub, log.Discard())
	srv := httptest.NewServer(apiServer.Handler())
	defer srv.Close()

	c := client.New(srv.URL, "e2e-key")
	created, err := c.CreateReadme(ctx, api.CreateReadmeRequest{
		ProjectName: "scribe",
		Description: "Generates docs",
	})
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, created.Status)

	final, err := c.WaitForJob(ctx, created.JobID, 20*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, job.StatusCompleted, final.Status)
	require.NotNil(t, final.Result)
	assert.Equal(t, "# scribe\n\nGenerates docs.", *final.Result)
	assert.Nil(t, final.Error)
	assert.NotNil(t, final.CompletedAt)

	var types []string
	for _, ev := range hub.Since(0) {
		types = append(types, ev.Type)
	}
	// The runner may claim the job before the API publishes job.created.
	assert.ElementsMatch(t, []string{"job.created", "job.processing", "job.completed"}, types)

	_, err = c.CreateReadme(ctx, api.CreateReadmeRequest{ProjectName: "scribe"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestSignedPushProducesChangelog(t *testing.T) {
	log.SetupWriter(io.Discard, "error", "json")

	githubSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/repos/octo/app/commits/aaa111":
			_, _ = io.WriteString(w, `{"sha":"aaa111","files":[{"filename":"main.go","patch":"+fmt.Println(\"hi\")"}]}`)
		case "/repos/octo/app/commits/bbb222":
			_, _ = io.WriteString(w, `{"sha":"bbb222","files":[{"filename":"logo.png"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
		}
	}))
	defer githubSrv.Close()
	fetcher, err := github.NewClient(github.Config{BaseURL: githubSrv.URL})
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		posted []string
	)
	slackSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&msg)
		mu.Lock()
		posted = append(posted, msg.Text)
		mu.Unlock()
	}))
	defer slackSrv.Close()

	hub := events.NewHub(16)
	pipeline := &commits.Pipeline{Fetcher: fetcher, Generator: fakeLLM(t)}
	server := webhook.New(webhook.Config{Secret: "s3cr3t"}, pipeline, log.Discard(),
		webhook.WithNotifier(notify.NewSlack(slackSrv.URL)),
		webhook.WithPublisher(hub),
	)
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	payload := []byte(`{"repository":{"full_name":"octo/app"},"commits":[{"id":"aaa111"},{"id":"bbb222"},{"id":"ccc333"}]}`)
	req, err := http.NewRequest(http.MethodPost, srv.URL+webhook.DefaultPath, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set(webhook.DefaultSignatureHeader, webhook.Sign([]byte("s3cr3t"), payload))
	req.Header.Set("X-GitHub-Event", "push")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body webhook.ProcessedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "processed", body.Status)
	// ccc333 is skipped because its diff cannot be fetched.
	assert.Equal(t, []commits.Summary{
		{Commit: "aaa111", Summary: "Adds a greeting."},
		{Commit: "bbb222", Summary: commits.NoChangesSummary},
	}, body.Summaries)

	mu.Lock()
	require.Len(t, posted, 1)
	assert.Contains(t, posted[0], "*Changelog for octo/app*")
	mu.Unlock()

	evs := hub.Since(0)
	require.Len(t, evs, 1)
	assert.Equal(t, "webhook.processed", evs[0].Type)

	tampered, err := http.NewRequest(http.MethodPost, srv.URL+webhook.DefaultPath, bytes.NewReader(append(payload, ' ')))
	require.NoError(t, err)
	tampered.Header.Set(webhook.DefaultSignatureHeader, webhook.Sign([]byte("s3cr3t"), payload))
	resp2, err := http.DefaultClient.Do(tampered)
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp2.StatusCode)
}
