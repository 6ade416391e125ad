package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/mattjoyce/scribe-gw/internal/job"
	"github.com/mattjoyce/scribe-gw/internal/webhook"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Validate checks cfg after defaults have been applied. All problems are
// reported together.
func Validate(cfg *Config) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch cfg.Service.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		add("service.log_level %q must be debug, info, warn or error", cfg.Service.LogLevel)
	}
	switch cfg.Service.LogFormat {
	case "json", "text":
	default:
		add("service.log_format %q must be json or text", cfg.Service.LogFormat)
	}

	if cfg.State.RetentionPeriod() < 0 {
		add("state.retention must not be negative")
	}
	if err := job.ValidateSchedule(cfg.State.PruneSchedule); err != nil {
		add("state.prune_schedule %q: %v", cfg.State.PruneSchedule, err)
	}

	if cfg.API.IsEnabled() {
		if cfg.API.APIKey == "" || hasPlaceholder(cfg.API.APIKey) {
			add("api.api_key is required when the API is enabled (set %s)", EnvAPIKey)
		}
		checkListen(add, "api.listen", cfg.API.Listen)
	}

	w := cfg.Webhook
	checkListen(add, "webhook.listen", w.Listen)
	if !strings.HasPrefix(w.Path, "/") {
		add("webhook.path %q must start with /", w.Path)
	}
	if _, err := webhook.ParseMaxBodySize(w.MaxBodySize); err != nil {
		add("webhook.max_body_size %q: %v", w.MaxBodySize, err)
	}
	if w.FetchTimeout < 0 || w.GenerationTimeout < 0 {
		add("webhook timeouts must not be negative")
	}
	if w.Concurrency < 1 {
		add("webhook.concurrency must be at least 1")
	}
	if w.MaxDiffChars < 1 {
		add("webhook.max_diff_chars must be at least 1")
	}

	if cfg.LLM.APIKey == "" || hasPlaceholder(cfg.LLM.APIKey) {
		add("llm.api_key is required (set %s or %s)", EnvLLMAPIKey, EnvOpenAIAPIKey)
	}
	if cfg.LLM.MaxRetries < 0 {
		add("llm.max_retries must not be negative")
	}
	if cfg.LLM.Timeout < 0 || cfg.GitHub.Timeout < 0 {
		add("client timeouts must not be negative")
	}

	if cfg.Jobs.Workers < 1 {
		add("jobs.workers must be at least 1")
	}
	if cfg.Jobs.PollInterval < 0 || cfg.Jobs.GenerationTimeout < 0 {
		add("jobs durations must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalidConfig, strings.Join(problems, "\n  - "))
	}
	return nil
}

// Warnings reports settings that are allowed but probably unintended.
func Warnings(cfg *Config) []string {
	var out []string
	if cfg.Webhook.Secret == "" {
		out = append(out, fmt.Sprintf("webhook.secret is not set (%s); every webhook delivery will be rejected", EnvWebhookSecret))
	}
	if cfg.GitHub.Token == "" {
		out = append(out, fmt.Sprintf("github.token is not set (%s); diff fetches are unauthenticated and rate limited", EnvGitHubToken))
	}
	if cfg.State.RetentionPeriod() == 0 {
		out = append(out, "state.retention is 0; terminal jobs are never pruned")
	}
	return out
}

func checkListen(add func(string, ...any), field, addr string) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		add("%s %q: %v", field, addr, err)
	}
}

// hasPlaceholder reports an ${VAR} reference left by interpolation.
func hasPlaceholder(s string) bool {
	return envVarPattern.MatchString(s)
}
