// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"job-autopilot/internal/config"
	"job-autopilot/internal/domain/ports/adapter"
	"job-autopilot/internal/infra/adapters/browser"
	"job-autopilot/internal/infra/adapters/fill"
	llmAdapters "job-autopilot/internal/infra/adapters/llm"
	"job-autopilot/internal/infra/adapters/notify"
	"job-autopilot/internal/infra/api"
	pg "job-autopilot/internal/infra/db/postgres"
	"job-autopilot/internal/infra/logging"
	"job-autopilot/internal/infra/profile"
	red "job-autopilot/internal/infra/redis"
	"job-autopilot/internal/infra/sched"
	"job-autopilot/internal/infra/scrape"
	"job-autopilot/internal/infra/worker"
	"job-autopilot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, printed admin token)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	abortFlag := red.NewAbortFlag(redisClient, cfg.Apply.StepTimeout*8)

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool)
	attemptRepo := pg.NewAttemptRepo(pool)
	txManager := pg.NewTxManager(pool)
	profileRepo := profile.NewFileRepository(cfg.Profile.Path)

	// ---- LLM adapter (provider-selected, rate-limited, concurrency-capped) ----
	var llm adapter.LLMAdapter
	switch strings.ToLower(cfg.LLM.Provider) {
	case "gemini":
		llm, err = llmAdapters.NewGeminiAdapter(ctx, cfg.LLM.GeminiKey, cfg.LLM.GeminiURL, cfg.LLM.Model)
		if err != nil {
			log.Fatalf("gemini adapter: %v", err)
		}
		logger.Info().Str("model", cfg.LLM.Model).Msg("LLM adapter: Gemini")
	case "openai", "":
		if cfg.LLM.OpenAIKey == "" {
			log.Fatalf("no LLM provider configured: set llm.openai_key or llm.gemini_key in %s", *cfgPath)
		}
		llm, err = llmAdapters.NewOpenAIAdapter(cfg.LLM.OpenAIKey, cfg.LLM.OpenAIBaseURL, cfg.LLM.Model)
		if err != nil {
			log.Fatalf("openai adapter: %v", err)
		}
		logger.Info().Str("model", cfg.LLM.Model).Msg("LLM adapter: OpenAI")
	default:
		log.Fatalf("unknown llm.provider %q (want openai or gemini)", cfg.LLM.Provider)
	}
	llm = llmAdapters.NewRateLimitedLLM(llm, rateLimiter, cfg.LLM.Provider, cfg.LLM.RateLimit, cfg.LLM.RateWindow)
	llm = llmAdapters.NewLimitedLLM(llm, cfg.LLM.ConcurrentLimit)
	answers := usecase.NewAnswerEngine(llm, cfg.LLM.MaxPromptTokens, cfg.LLM.MaxAnswerTokens, logger)

	// ---- Browser sessions and platform fillers ----
	sessions := browser.NewManager(cfg.Apply.MaxConcurrentSessions, logger)
	fillers := usecase.NewFillerSet(
		fill.NewGenericFiller(),
		fill.NewGreenhouseFiller(),
		fill.NewLeverFiller(),
		fill.NewAshbyFiller(),
	)

	// ---- Notifier ----
	var notifier adapter.Notifier
	if cfg.Notify.DiscordWebhookURL != "" {
		notifier = notify.NewDiscordNotifier(cfg.Notify.DiscordWebhookURL, logger)
		logger.Info().Msg("notifier: Discord webhook")
	} else if cfg.Notify.NtfyTopic != "" {
		notifier = notify.NewNtfyNotifier(cfg.Notify.NtfyTopic, logger)
		logger.Info().Str("topic", cfg.Notify.NtfyTopic).Msg("notifier: ntfy")
	} else {
		notifier = notify.NewNoopNotifier()
		logger.Warn().Msg("no notifier configured; escalations land in logs only")
	}

	// ---- Sources ----
	var sources []adapter.SourceAdapter
	if len(cfg.Scrape.GreenhouseBoards) > 0 {
		sources = append(sources, scrape.NewGreenhouseBoardSource(cfg.Scrape.GreenhouseBoards, logger))
	}
	if len(cfg.Scrape.LeverCompanies) > 0 {
		sources = append(sources, scrape.NewLeverPostingsSource(cfg.Scrape.LeverCompanies, logger))
	}
	sources = append(sources, scrape.NewRemotiveSource("", logger))

	// ---- Use cases ----
	validator := usecase.NewLinkValidator(cfg.Scrape.LinkTimeout, cfg.Scrape.MaxConcurrent, cfg.Scrape.DeniedDomains, true, logger)
	discoveryUC := usecase.NewDiscoveryUseCase(sources, jobRepo, validator,
		cfg.Scrape.MaxConcurrent, cfg.Scrape.ValidateLinks, logger)
	classifyUC := usecase.NewClassifyUseCase(jobRepo, logger)
	applyUC := usecase.NewApplyUseCase(
		jobRepo, attemptRepo, txManager, profileRepo,
		sessions, fillers, answers, locker, abortFlag, notifier,
		usecase.ApplyConfig{
			StepTimeout:   cfg.Apply.StepTimeout,
			StalenessDays: cfg.Apply.StalenessDays,
			AutoSubmit:    cfg.Apply.AutoSubmit,
		}, logger)
	statsUC := usecase.NewStatsUseCase(jobRepo)

	// ---- Background workers ----
	workPool := worker.NewPool(cfg.Apply.MaxConcurrentSessions, logger)
	workPool.Start(ctx)
	defer workPool.Stop()

	discoveryWorker := sched.NewDiscoveryWorker(cfg.Scrape.Interval, cfg.Scrape.LimitPerSource, discoveryUC, logger)
	go func() { _ = discoveryWorker.Run(ctx) }()
	applyWorker := sched.NewApplyWorker(cfg.Apply.Interval, cfg.Apply.MaxPerRun, jobRepo, classifyUC, applyUC, workPool, logger)
	go func() { _ = applyWorker.Run(ctx) }()

	// ---- HTTP control surface ----
	auth := api.NewAuthManager(cfg.API.JWTSecret, 12*time.Hour)
	if cfg.Runtime.Dev && cfg.API.JWTSecret != "" {
		if tok, err := auth.Mint(); err == nil {
			logger.Info().Str("token", tok).Msg("dev admin token")
		}
	}
	srv := api.NewServer(jobRepo, attemptRepo, discoveryUC, applyUC, statsUC, auth, logger)
	go func() {
		if err := srv.Serve(ctx, fmt.Sprintf(":%d", cfg.API.Port)); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
}
