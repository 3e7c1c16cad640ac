package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/tradepost-erp/tradepost/internal/app"
	jobmetrics "github.com/tradepost-erp/tradepost/internal/jobs"
	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/platform/db"
	"github.com/tradepost-erp/tradepost/internal/shared"
	"github.com/tradepost-erp/tradepost/internal/syslog"
	"github.com/tradepost-erp/tradepost/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	maintenance := &jobs.Maintenance{
		Logger:  logger,
		Ledger:  ledger.NewService(ledger.NewRepository(pool)),
		Syslog:  syslog.NewStore(pool),
		IdemKey: shared.NewIdempotencyStore(pool),
		Metrics: jobmetrics.NewMetrics(nil),

		SyslogRetention:      cfg.SyslogRetention,
		IdempotencyRetention: cfg.IdempotencyRetention,
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers:  maintenance.TaskHandlers(),
		Cron: []jobs.CronRegistration{
			{Spec: "30 2 * * *", Task: jobs.NewLedgerIntegrityTask()},
			{Spec: "0 3 * * *", Task: jobs.NewSyslogCleanupTask()},
			{Spec: "15 3 * * *", Task: jobs.NewIdempotencyCleanupTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	// One integrity sweep right away so a fresh deploy surfaces drift without
	// waiting for the nightly schedule.
	client := jobs.NewClient(redisOpts)
	if _, err := client.Enqueue(ctx, jobs.NewLedgerIntegrityTask()); err != nil {
		logger.Warn("enqueue startup integrity sweep", slog.Any("error", err))
	}
	if err := client.Close(); err != nil {
		logger.Warn("asynq client close", slog.Any("error", err))
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
