package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/scribe-gw/internal/config"
	"github.com/mattjoyce/scribe-gw/internal/webhook"
)

func captureOutputWithExitCode(t *testing.T, run func() int) (int, string, string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = stdoutW
	os.Stderr = stderrW

	code := run()

	_ = stdoutW.Close()
	_ = stderrW.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdoutBytes, _ := io.ReadAll(stdoutR)
	stderrBytes, _ := io.ReadAll(stderrR)
	_ = stdoutR.Close()
	_ = stderrR.Close()

	return code, string(stdoutBytes), string(stderrBytes)
}

func runCaptured(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	return captureOutputWithExitCode(t, func() int { return runCLI(args) })
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvWebhookSecret, config.EnvGitHubToken, config.EnvLLMAPIKey,
		config.EnvOpenAIAPIKey, config.EnvAPIKey, config.EnvSlackWebhook,
		config.EnvConfigPath, envAPIURL,
	} {
		t.Setenv(key, "")
	}
	// Keep ./.env and ./scribe-gw.yaml discovery away from the repo.
	t.Chdir(t.TempDir())
}

func TestUnknownCommand(t *testing.T) {
	code, _, stderr := runCaptured(t, "frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")
}

func TestNoArgsPrintsUsage(t *testing.T) {
	code, stdout, _ := runCaptured(t)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "scribe-gw <noun> <action>")
}

func TestVersionJSON(t *testing.T) {
	code, stdout, _ := runCaptured(t, "version", "--json")
	require.Equal(t, 0, code)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version, info.Version)
	assert.NotEmpty(t, info.Commit)
}

func TestWebhookSignMatchesVerifier(t *testing.T) {
	body := []byte(`{"key":"value"}`)
	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, body, 0600))

	code, stdout, stderr := runCaptured(t, "webhook", "sign", "--secret", "s3cr3t", "--file", path)
	require.Equal(t, 0, code, stderr)

	header := strings.TrimSpace(stdout)
	assert.True(t, strings.HasPrefix(header, "sha256="))
	assert.NoError(t, webhook.NewVerifier("s3cr3t").Verify(body, header))
}

func TestWebhookSignRequiresSecret(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCaptured(t, "webhook", "sign", "--file", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--secret is required")
}

func TestConfigLockThenCheck(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvLLMAPIKey, "sk-test")

	path := filepath.Join(t.TempDir(), "scribe-gw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: test\n"), 0600))

	code, stdout, stderr := runCaptured(t, "config", "lock", "--config", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "HASH scribe-gw.yaml:")

	code, stdout, stderr = runCaptured(t, "config", "check", "--config", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Integrity: verified")
	assert.Contains(t, stdout, "WARN webhook.secret is not set")

	require.NoError(t, os.WriteFile(path, []byte("service:\n  name: changed\n"), 0600))
	code, _, stderr = runCaptured(t, "config", "check", "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "checksum mismatch")
}

func TestConfigCheckFailsWithoutLLMKey(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCaptured(t, "config", "check")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "llm.api_key is required")
}

func TestConfigCheckReadsEnvFile(t *testing.T) {
	isolateEnv(t)
	require.NoError(t, os.Unsetenv(config.EnvLLMAPIKey))

	envPath := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("LLM_API_KEY=sk-dotenv\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv(config.EnvLLMAPIKey) })

	code, stdout, stderr := runCaptured(t, "config", "check", "--env-file", envPath)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "No config file")
}

func TestJobCreateValidatesBeforeCalling(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCaptured(t, "job", "create", "--project", "scribe", "--api", "http://127.0.0.1:1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Invalid job")
}

func TestJobGetPrintsJob(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/abc", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"job_id":"abc","kind":"readme","status":"completed","result":"# Hi","error":null}`)
	}))
	defer srv.Close()

	code, stdout, stderr := runCaptured(t, "job", "get", "abc", "--api", srv.URL, "--token", "key")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"job_id": "abc"`)
	assert.Contains(t, stdout, `"status": "completed"`)
}

func TestJobGetNotFound(t *testing.T) {
	isolateEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"job not found"}`)
	}))
	defer srv.Close()

	code, _, stderr := runCaptured(t, "job", "get", "--api", srv.URL, "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Job missing not found")
}

func TestJobGetRequiresID(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCaptured(t, "job", "get")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "job id is required")
}
