package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atlas-pm/atlas-pm/internal/app"
	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
	"github.com/atlas-pm/atlas-pm/internal/platform/cache"
	"github.com/atlas-pm/atlas-pm/internal/platform/db"
	"github.com/atlas-pm/atlas-pm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accountRepo := accounts.NewRepository(pool)
	reconcileService := reconcile.NewService(accountRepo, reconcile.NewRepository(pool), logger)
	reconcileHandler := jobs.NewReconcileHandler(reconcileService, jobs.NewPGBusinessSource(pool), logger)

	rateCache := rates.NewCache(redisClient, cfg.RateCacheTTL)
	rateResolver := rates.NewResolver(rates.NewRepository(pool), rateCache, logger)
	warmupHandler := jobs.NewRateWarmupHandler(rateResolver, logger)

	reconcileTask, err := jobs.NewLedgerReconcileTask(jobs.LedgerReconcilePayload{})
	if err != nil {
		logger.Error("build reconcile task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerReconcile, Handler: reconcileHandler},
			{Type: jobs.TaskRateWarmup, Handler: warmupHandler},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconcileSchedule, Task: reconcileTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
