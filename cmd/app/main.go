// File: cmd/app/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/bandit"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/config"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/adapter"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/ports/repository"
	backends "github.com/Anshuman-Jagani/Neurocanvas/internal/infra/adapters/backend"
	pg "github.com/Anshuman-Jagani/Neurocanvas/internal/infra/db/postgres"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/logging"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/metrics"
	red "github.com/Anshuman-Jagani/Neurocanvas/internal/infra/redis"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/sched"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/web"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/infra/worker"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/prompt"
	"github.com/Anshuman-Jagani/Neurocanvas/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Generation backends ----
	registry, err := buildRegistry(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("backends")
	}
	arms := registry.Names()

	// ---- Bandit selector ----
	selector := bandit.NewSelector(bandit.Config{
		Arms:           arms,
		DefaultArm:     cfg.Orchestrator.DefaultBackend,
		InitialEpsilon: cfg.Bandit.InitialEpsilon,
		MinEpsilon:     cfg.Bandit.MinEpsilon,
		DecayRate:      cfg.Bandit.DecayRate,
	}, logger)

	// ---- Repositories ----
	prefRepo := pg.NewPreferenceRepoCacheDecorator(
		pg.NewPostgresPreferenceRepo(pool, selector.NewState),
		redisClient, cfg.Redis.TTL)
	jobRepo := pg.NewPostgresJobRepo(pool)
	statsRepo := pg.NewPostgresBackendStatsRepo(pool)
	txm := pg.NewTxManager(pool)

	// ---- Use cases ----
	analyzer := prompt.NewAnalyzer(logger)
	orchUC := usecase.NewOrchestratorUseCase(usecase.OrchestratorConfig{
		DefaultBackend:       cfg.Orchestrator.DefaultBackend,
		AlwaysIncludeDefault: *cfg.Orchestrator.AlwaysIncludeDefault,
		SelectionThreshold:   cfg.Orchestrator.SelectionThreshold,
	}, registry, analyzer, logger)
	if rows, err := statsRepo.FindAll(ctx, repository.NoTX); err != nil {
		logger.Warn().Err(err).Msg("could not seed backend stats")
	} else {
		orchUC.SeedStats(rows)
	}
	prefUC := usecase.NewPreferenceUseCase(prefRepo, txm, locker, selector, logger)

	// ---- Job queue ----
	pool2 := worker.NewPool(cfg.Queue.EventWorkers, cfg.Queue.EventBufferSize, logger)
	queue := worker.NewQueue(cfg.Queue.CompletedCap, orchUC, pool2, logger)

	// Mirror terminal jobs into postgres for history queries.
	queue.Subscribe(func(ev worker.Event) {
		if !ev.Job.Status.Terminal() {
			return
		}
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		job := ev.Job
		if err := jobRepo.SaveTerminal(sctx, repository.NoTX, &job); err != nil {
			logger.Warn().Str("job_id", job.ID).Err(err).Msg("job mirror failed")
		}
	})
	// Epsilon decay is driven by completed generations, one per job.
	queue.Subscribe(func(ev worker.Event) {
		if ev.Type != worker.EventCompleted || ev.Job.Owner == "" {
			return
		}
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := prefUC.RecordGeneration(sctx, ev.Job.Owner); err != nil {
			logger.Warn().Str("user_id", ev.Job.Owner).Err(err).Msg("record generation failed")
		}
	})
	queue.Start(ctx)

	// ---- Stats flusher ----
	flusher := sched.NewStatsFlusher(cfg.Sched.StatsFlushInterval, orchUC, statsRepo, logger)
	go func() { _ = flusher.Run(ctx) }()

	// ---- HTTP API ----
	server := web.NewServer(cfg.Web, cfg.Runtime.Dev, queue, jobRepo, prefUC, orchUC, arms, rateLimiter, logger)
	go func() {
		if err := server.Run(); err != nil {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	if err := server.Shutdown(shCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	cancel()
	queue.Stop()
}

func buildRegistry(ctx context.Context, cfg *config.Config) (*backends.Registry, error) {
	var list []adapter.GenerationBackend
	for _, bc := range cfg.Backends {
		switch bc.Kind {
		case "subprocess":
			if bc.Name == "style_transfer" {
				list = append(list, backends.NewStyleTransferBackend(bc.Command, bc.Args, bc.OutputDir, bc.Timeout))
			} else {
				list = append(list, backends.NewDiffusionBackend(bc.Command, bc.Args, bc.OutputDir, bc.Timeout))
			}
		case "openai":
			b, err := backends.NewOpenAIBackend(bc.APIKey, bc.BaseURL, bc.Model, bc.OutputDir, bc.Timeout)
			if err != nil {
				return nil, err
			}
			list = append(list, b)
		case "gemini":
			b, err := backends.NewGeminiBackend(ctx, bc.APIKey, bc.BaseURL, bc.Model, bc.OutputDir, bc.Timeout)
			if err != nil {
				return nil, err
			}
			list = append(list, b)
		case "mock":
			list = append(list, backends.NewMockBackend(bc.Name, bc.Timeout))
		}
	}
	return backends.NewRegistry(cfg.Orchestrator.DefaultBackend, list...), nil
}
