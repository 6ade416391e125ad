package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when no path is given and the file exists.
const DefaultConfigFile = "scribe-gw.yaml"

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Credential environment variables. They override values from the file.
const (
	EnvWebhookSecret = "WEBHOOK_SECRET"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvLLMAPIKey     = "LLM_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvAPIKey        = "SCRIBE_API_KEY"
	EnvSlackWebhook  = "SLACK_WEBHOOK_URL"
	EnvConfigPath    = "SCRIBE_CONFIG"
)

// LoadEnvFile loads KEY=VALUE pairs into the environment without
// overriding variables that are already set. A missing file is only an
// error when required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// ResolvePath picks the config file: the explicit path, then
// $SCRIBE_CONFIG, then ./scribe-gw.yaml if present. Empty means none.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// Load reads the config at path (which may be empty for defaults plus
// environment), applies overrides and defaults, and validates. If a
// .checksums file sits next to the config, the config must match it.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := verifyIfLocked(path); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader([]byte(interpolateEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func verifyIfLocked(path string) error {
	dir := filepath.Dir(path)
	if _, err := os.Stat(filepath.Join(dir, ChecksumFile)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return VerifyChecksums(dir, []string{filepath.Base(path)})
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is and caught by validation.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) {
	setFromEnv(&cfg.Webhook.Secret, EnvWebhookSecret)
	setFromEnv(&cfg.GitHub.Token, EnvGitHubToken)
	if !setFromEnv(&cfg.LLM.APIKey, EnvLLMAPIKey) && cfg.LLM.APIKey == "" {
		setFromEnv(&cfg.LLM.APIKey, EnvOpenAIAPIKey)
	}
	setFromEnv(&cfg.API.APIKey, EnvAPIKey)
	setFromEnv(&cfg.Notify.SlackWebhookURL, EnvSlackWebhook)
}

func setFromEnv(dst *string, key string) bool {
	if v := os.Getenv(key); v != "" {
		*dst = v
		return true
	}
	return false
}

func applyDefaults(cfg *Config) {
	d := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = d.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = d.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = d.Service.LogFormat
	}

	if cfg.State.Path == "" {
		cfg.State.Path = d.State.Path
	}
	if cfg.State.PruneSchedule == "" {
		cfg.State.PruneSchedule = d.State.PruneSchedule
	}
	if cfg.State.Retention == nil {
		r := DefaultRetention
		cfg.State.Retention = &r
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = d.API.Listen
	}

	w := &cfg.Webhook
	if w.Listen == "" {
		w.Listen = d.Webhook.Listen
	}
	if w.Path == "" {
		w.Path = d.Webhook.Path
	}
	if w.SignatureHeader == "" {
		w.SignatureHeader = d.Webhook.SignatureHeader
	}
	if w.MaxBodySize == "" {
		w.MaxBodySize = d.Webhook.MaxBodySize
	}
	if w.FetchTimeout == 0 {
		w.FetchTimeout = d.Webhook.FetchTimeout
	}
	if w.GenerationTimeout == 0 {
		w.GenerationTimeout = d.Webhook.GenerationTimeout
	}
	if w.Concurrency == 0 {
		w.Concurrency = d.Webhook.Concurrency
	}
	if w.MaxDiffChars == 0 {
		w.MaxDiffChars = d.Webhook.MaxDiffChars
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = d.LLM.Model
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = d.LLM.Timeout
	}
	if cfg.GitHub.Timeout == 0 {
		cfg.GitHub.Timeout = d.GitHub.Timeout
	}

	if cfg.Jobs.Workers == 0 {
		cfg.Jobs.Workers = d.Jobs.Workers
	}
	if cfg.Jobs.PollInterval == 0 {
		cfg.Jobs.PollInterval = d.Jobs.PollInterval
	}
	if cfg.Jobs.GenerationTimeout == 0 {
		cfg.Jobs.GenerationTimeout = d.Jobs.GenerationTimeout
	}
}
