package config

import "time"

// DefaultRetention keeps terminal jobs for 30 days.
const DefaultRetention = 30 * 24 * time.Hour

// Config represents the complete scribe-gw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	State   StateConfig   `yaml:"state"`
	API     APIConfig     `yaml:"api"`
	Webhook WebhookConfig `yaml:"webhook"`
	LLM     LLMConfig     `yaml:"llm"`
	GitHub  GitHubConfig  `yaml:"github"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// StateConfig defines state storage and retention.
type StateConfig struct {
	Path string `yaml:"path"`
	// Retention is how long terminal jobs are kept. An explicit zero
	// disables pruning; unset means the default.
	Retention     *time.Duration `yaml:"retention"`
	PruneSchedule string         `yaml:"prune_schedule"`
}

// RetentionPeriod returns the effective retention window.
func (s StateConfig) RetentionPeriod() time.Duration {
	if s.Retention == nil {
		return DefaultRetention
	}
	return *s.Retention
}

// APIConfig defines HTTP job API settings.
// Unset Enabled means enabled exactly when an API key is configured.
type APIConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	APIKey  string `yaml:"api_key"`
}

func (a APIConfig) IsEnabled() bool {
	if a.Enabled == nil {
		return a.APIKey != ""
	}
	return *a.Enabled
}

// WebhookConfig defines the push webhook listener.
type WebhookConfig struct {
	Listen            string        `yaml:"listen"`
	Path              string        `yaml:"path"`
	Secret            string        `yaml:"secret"`
	SignatureHeader   string        `yaml:"signature_header"`
	MaxBodySize       string        `yaml:"max_body_size"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
	Concurrency       int           `yaml:"concurrency"`
	MaxDiffChars      int           `yaml:"max_diff_chars"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Model      string        `yaml:"model"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

type GitHubConfig struct {
	Token   string        `yaml:"token"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// JobsConfig tunes background job execution.
type JobsConfig struct {
	Workers           int           `yaml:"workers"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
}

type NotifyConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Defaults returns a configuration with every default applied.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "scribe-gw",
			LogLevel:  "info",
			LogFormat: "json",
		},
		State: StateConfig{
			Path:          "./data/scribe.db",
			PruneSchedule: "@every 1h",
		},
		API: APIConfig{
			Listen: "127.0.0.1:8080",
		},
		Webhook: WebhookConfig{
			Listen:            "127.0.0.1:8081",
			Path:              "/webhook",
			SignatureHeader:   "X-Hub-Signature-256",
			MaxBodySize:       "1MB",
			FetchTimeout:      30 * time.Second,
			GenerationTimeout: 60 * time.Second,
			Concurrency:       1,
			MaxDiffChars:      4000,
		},
		LLM: LLMConfig{
			Model:      "gpt-4o-mini",
			Timeout:    60 * time.Second,
			MaxRetries: 3,
		},
		GitHub: GitHubConfig{
			Timeout: 30 * time.Second,
		},
		Jobs: JobsConfig{
			Workers:           2,
			PollInterval:      2 * time.Second,
			GenerationTimeout: 2 * time.Minute,
		},
	}
}
