package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/scribe-gw/internal/api"
	"github.com/mattjoyce/scribe-gw/internal/commits"
	"github.com/mattjoyce/scribe-gw/internal/config"
	"github.com/mattjoyce/scribe-gw/internal/events"
	"github.com/mattjoyce/scribe-gw/internal/github"
	"github.com/mattjoyce/scribe-gw/internal/job"
	"github.com/mattjoyce/scribe-gw/internal/llm"
	"github.com/mattjoyce/scribe-gw/internal/lock"
	"github.com/mattjoyce/scribe-gw/internal/log"
	"github.com/mattjoyce/scribe-gw/internal/notify"
	"github.com/mattjoyce/scribe-gw/internal/storage"
	"github.com/mattjoyce/scribe-gw/internal/webhook"
)

func runSystemStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	envFile := fs.String("env-file", "", "Path to .env file (default ./.env if present)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, path, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("scribe-gw starting", "version", version, "config", path)
	for _, w := range config.Warnings(cfg) {
		logger.Warn(w)
	}

	pidLock, err := lock.Acquire(lock.PathFor(cfg.State.Path))
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "error", err)
		return 1
	}
	defer pidLock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	generator, err := llm.NewClient(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		Timeout:    cfg.LLM.Timeout,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err != nil {
		logger.Error("failed to configure llm client", "error", err)
		return 1
	}
	fetcher, err := github.NewClient(github.Config{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Timeout: cfg.GitHub.Timeout,
	})
	if err != nil {
		logger.Error("failed to configure github client", "error", err)
		return 1
	}

	hub := events.NewHub(256)
	defer hub.Close()

	store := job.NewSQLStore(db)
	engine := job.NewEngine(store, generator,
		job.WithPublisher(hub),
		job.WithGenerationTimeout(cfg.Jobs.GenerationTimeout),
	)
	runner := job.NewRunner(store, engine, cfg.Jobs.Workers, cfg.Jobs.PollInterval)
	if _, err := runner.RecoverOrphaned(ctx); err != nil {
		logger.Error("orphan recovery failed", "error", err)
		return 1
	}
	janitor := job.NewJanitor(store, cfg.State.RetentionPeriod(), cfg.State.PruneSchedule)

	webhookServer, err := newWebhookServer(cfg, fetcher, generator, hub)
	if err != nil {
		logger.Error("failed to configure webhook server", "error", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return component("runner", runner.Start(gctx)) })
	g.Go(func() error { return component("janitor", janitor.Start(gctx)) })
	g.Go(func() error { return component("webhook", webhookServer.Start(gctx)) })

	if cfg.API.IsEnabled() {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, store, runner, hub, log.WithComponent("api"))
		g.Go(func() error { return component("api", apiServer.Start(gctx)) })
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("scribe-gw running (press Ctrl+C to stop)")
	if err := g.Wait(); err != nil {
		logger.Error("component failed", "error", err)
		return 1
	}
	logger.Info("scribe-gw stopped")
	return 0
}

func newWebhookServer(cfg *config.Config, fetcher commits.DiffFetcher, generator commits.Generator, hub *events.Hub) (*webhook.Server, error) {
	maxBody, err := webhook.ParseMaxBodySize(cfg.Webhook.MaxBodySize)
	if err != nil {
		return nil, err
	}

	pipeline := &commits.Pipeline{
		Fetcher:           fetcher,
		Generator:         generator,
		Observer:          commits.LogObserver{Logger: log.WithComponent("commits")},
		FetchTimeout:      cfg.Webhook.FetchTimeout,
		GenerationTimeout: cfg.Webhook.GenerationTimeout,
		MaxDiffChars:      cfg.Webhook.MaxDiffChars,
		Concurrency:       cfg.Webhook.Concurrency,
	}

	opts := []webhook.Option{webhook.WithPublisher(hub)}
	if cfg.Notify.SlackWebhookURL != "" {
		opts = append(opts, webhook.WithNotifier(notify.NewSlack(cfg.Notify.SlackWebhookURL)))
	}

	return webhook.New(webhook.Config{
		Listen:          cfg.Webhook.Listen,
		Path:            cfg.Webhook.Path,
		Secret:          cfg.Webhook.Secret,
		SignatureHeader: cfg.Webhook.SignatureHeader,
		MaxBodySize:     maxBody,
	}, pipeline, log.WithComponent("webhook"), opts...), nil
}

// component treats cancellation as a clean stop.
func component(name string, err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// loadConfig loads the env file, resolves the config path and loads it.
func loadConfig(configPath, envFile string) (*config.Config, string, error) {
	if err := config.LoadEnvFile(envFile, envFile != ""); err != nil {
		return nil, "", err
	}
	path := config.ResolvePath(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
