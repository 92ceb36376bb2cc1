package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"NewsIntegrity/internal/config"
	"NewsIntegrity/internal/infrastructure/history"
	"NewsIntegrity/internal/infrastructure/llm"
	"NewsIntegrity/internal/infrastructure/redislock"
	"NewsIntegrity/internal/infrastructure/scheduler"
	"NewsIntegrity/internal/infrastructure/storage"
	"NewsIntegrity/internal/infrastructure/telegram"
	"NewsIntegrity/internal/logging"
	"NewsIntegrity/internal/ports"
	"NewsIntegrity/internal/redraft"
	"NewsIntegrity/internal/rollup"
	"NewsIntegrity/internal/scoring"
	"NewsIntegrity/internal/skew"
	"NewsIntegrity/internal/usecase"
)

const (
	lockPrefix      = "newsintegrity:"
	shutdownTimeout = 30 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New builds the application. Postgres, Redis, the LLM provider, the history
// service and Telegram are each optional; missing ones degrade to the
// in-memory store, the in-process lock, lexical-only scoring and no digest.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	articles, outlets, err := a.repositories(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	locker, err := a.locker()
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		classifier ports.Classifier
		generator  ports.Generator
		modelUsed  string
	)
	if cfg.LLM.APIKey != "" {
		completer, err := llm.New(ctx, cfg.LLM)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init llm: %w", err)
		}
		classifier = llm.NewClassifier(completer, cfg.LLM)
		generator = llm.NewGenerator(completer, cfg.LLM)
		modelUsed = completer.Model()
	} else {
		baseLogger.Warn("no llm api key configured, scoring is lexical-only")
	}

	deps := usecase.PipelineDeps{
		Articles: articles,
		Outlets:  outlets,
		Scorer: scoring.NewScorer(
			scoring.NewSemanticClassifier(classifier, cfg.LLM.ClassifyTimeout, baseLogger.With("component", "scoring.semantic")),
			baseLogger.With("component", "scoring"),
		),
		Redrafter:   redraft.NewGenerator(generator, cfg.LLM.RedraftTimeout, baseLogger.With("component", "redraft")),
		Rollup:      rollup.NewService(articles, outlets, locker, baseLogger.With("component", "rollup")),
		Skew:        skew.NewCalculator(articles),
		ModelUsed:   modelUsed,
		BatchSize:   cfg.Scoring.BatchSize,
		Concurrency: cfg.Scoring.Concurrency,
		Logger:      baseLogger.With("component", "pipeline"),
	}

	if cfg.History.URL != "" {
		hc := history.NewClient(cfg.History.URL, cfg.History.APIKey, cfg.History.TopK, cfg.History.Timeout)
		deps.History = hc
		deps.Index = hc
	}

	if n := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID, ""); n.Enabled() {
		deps.Notifier = n
	}

	a.pipeline = usecase.NewPipeline(deps)
	a.scheduler = usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval, cfg.Scheduler.Location()),
		a.pipeline,
		baseLogger.With("component", "scheduler"),
	)
	return a, nil
}

func (a *Application) repositories(ctx context.Context) (ports.ArticleRepository, ports.OutletRepository, error) {
	if a.cfg.Database.DSN == "" {
		a.logger.Warn("no database dsn configured, using in-memory store")
		store := storage.NewMemoryStore()
		return store, store, nil
	}

	pool, err := storage.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})

	if err := storage.EnsureSchema(ctx, pool); err != nil {
		return nil, nil, err
	}

	repo := storage.NewPostgresRepository(pool)
	return repo, repo, nil
}

func (a *Application) locker() (ports.Locker, error) {
	if a.cfg.Redis.URL == "" {
		return rollup.NewKeyedLocker(), nil
	}

	opts, err := redis.ParseURL(a.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, client.Close)

	return redislock.New(client, lockPrefix, a.cfg.Redis.LockTTL), nil
}

// Pipeline exposes the scoring use cases to the CLI.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Run starts the scoring loop and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting scoring loop", "config", a.cfg.String())

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// Close releases database and Redis connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
