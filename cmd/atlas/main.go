package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-pm/atlas-pm/cmd/atlas/cli"
	"github.com/atlas-pm/atlas-pm/internal/app"
	"github.com/atlas-pm/atlas-pm/internal/ledger/accounts"
	"github.com/atlas-pm/atlas-pm/internal/ledger/autopost"
	ledgerhttp "github.com/atlas-pm/atlas-pm/internal/ledger/http"
	"github.com/atlas-pm/atlas-pm/internal/ledger/journals"
	"github.com/atlas-pm/atlas-pm/internal/ledger/periods"
	"github.com/atlas-pm/atlas-pm/internal/ledger/rates"
	"github.com/atlas-pm/atlas-pm/internal/ledger/reconcile"
	"github.com/atlas-pm/atlas-pm/internal/platform/cache"
	"github.com/atlas-pm/atlas-pm/internal/platform/db"
	"github.com/atlas-pm/atlas-pm/internal/shared"
	"github.com/atlas-pm/atlas-pm/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if len(os.Args) > 1 && os.Args[1] == "fx" {
		os.Exit(runFXCommand(ctx, dbpool, os.Args[2:]))
	}

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

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)

	rateCache := rates.NewCache(redisClient, cfg.RateCacheTTL)
	rateResolver := rates.NewResolver(rates.NewRepository(dbpool), rateCache, logger)

	accountRepo := accounts.NewRepository(dbpool)
	accountService := accounts.NewService(accountRepo)

	journalRepo := journals.NewRepository(dbpool)
	journalService := journals.NewService(journalRepo, rateResolver, auditLogger, approvalRecorder, logger)

	autopostService, err := autopost.NewService(nil, accountService, journalService)
	if err != nil {
		logger.Error("account mappings", slog.Any("error", err))
		os.Exit(1)
	}

	periodService := periods.NewService(periods.NewRepository(dbpool))
	reconcileService := reconcile.NewService(accountRepo, reconcile.NewRepository(dbpool), logger)

	ledgerHandler := ledgerhttp.NewHandler(logger, journalService, autopostService, accountService, periodService, reconcileService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Pool:          dbpool,
		LedgerHandler: ledgerHandler,
		JobHandler:    jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func runFXCommand(ctx context.Context, pool *pgxpool.Pool, args []string) int {
	fxCLI := cli.NewFXOpsCLI(rates.NewStore(pool))
	if len(args) == 0 {
		os.Stderr.WriteString("usage: atlas fx <import|validate> [flags]\n")
		return 1
	}
	switch args[0] {
	case "import":
		opts := cli.FXImportOptions{Mode: cli.FXImportModeDry}
		for i := 1; i < len(args); i++ {
			switch args[i] {
			case "--apply":
				opts.Mode = cli.FXImportModeApply
			case "--json":
				opts.JSONOutput = true
			case "--source":
				if i+1 < len(args) {
					i++
					opts.Source = args[i]
				}
			}
		}
		return fxCLI.ImportCommand(ctx, opts)
	case "validate":
		var opts cli.FXValidateOptions
		for i := 1; i < len(args); i++ {
			switch args[i] {
			case "--json":
				opts.JSONOutput = true
			case "--pair":
				if i+1 < len(args) {
					i++
					opts.Pair = args[i]
				}
			case "--from":
				if i+1 < len(args) {
					i++
					opts.From = args[i]
				}
			case "--to":
				if i+1 < len(args) {
					i++
					opts.To = args[i]
				}
			}
		}
		return fxCLI.ValidateCommand(ctx, opts)
	default:
		os.Stderr.WriteString("usage: atlas fx <import|validate> [flags]\n")
		return 1
	}
}
