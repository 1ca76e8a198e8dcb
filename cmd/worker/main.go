package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"brandforge/internal/adapter/repo"
	"brandforge/internal/infra"
	"brandforge/internal/infra/credentials"
	"brandforge/internal/notify"
	"brandforge/internal/pipeline"
	"brandforge/internal/providers/content"
	"brandforge/internal/providers/vision"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	credStore := credentials.NewStore(runner)

	geminiKey := strings.TrimSpace(cfg.GeminiAPIKey)
	if geminiKey == "" {
		key, err := credStore.GeminiAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load gemini api key from store")
		} else {
			geminiKey = key
		}
	}
	deepseekKey := strings.TrimSpace(cfg.DeepSeekAPIKey)
	if deepseekKey == "" {
		key, err := credStore.DeepSeekAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load deepseek api key from store")
		} else {
			deepseekKey = key
		}
	}

	httpClient := &http.Client{Timeout: 60 * time.Second}
	analyzer, err := vision.NewGemini(vision.GeminiOptions{
		APIKey:     geminiKey,
		Model:      cfg.GeminiModel,
		BaseURL:    cfg.GeminiBaseURL,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}
	generator, err := content.NewDeepSeek(content.DeepSeekOptions{
		APIKey:     deepseekKey,
		Model:      cfg.DeepSeekModel,
		BaseURL:    cfg.DeepSeekBaseURL,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure deepseek client")
	}

	jobs := repo.NewJobRepository(runner)
	reports := repo.NewReportRepository(runner)
	sessions := repo.NewSessionRepository(runner)

	processor := pipeline.NewProcessor(pipeline.ProcessorOptions{
		Jobs:       jobs,
		Reports:    reports,
		Analyzer:   analyzer,
		Generator:  generator,
		Notifier:   notify.NewPGPublisher(runner, logger),
		Logger:     logger,
		JobTimeout: cfg.JobTimeout,
	})
	scheduler := pipeline.NewScheduler(pipeline.SchedulerOptions{
		Jobs:          jobs,
		Sessions:      sessions,
		Processor:     processor,
		Logger:        logger,
		PollInterval:  cfg.PollInterval,
		MaxConcurrent: cfg.MaxConcurrentJobs,
		JobTimeout:    cfg.JobTimeout,
	})

	scheduler.Start(ctx)
	logger.Info().
		Dur("poll_interval", cfg.PollInterval).
		Int("max_concurrent", cfg.MaxConcurrentJobs).
		Msg("worker: started")

	<-ctx.Done()
	scheduler.Stop()
	logger.Info().Msg("worker: stopped")
}
