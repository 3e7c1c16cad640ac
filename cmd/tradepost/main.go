package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradepost-erp/tradepost/internal/app"
	"github.com/tradepost-erp/tradepost/internal/auth"
	"github.com/tradepost-erp/tradepost/internal/bank"
	"github.com/tradepost-erp/tradepost/internal/expense"
	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/masterdata/items"
	"github.com/tradepost-erp/tradepost/internal/observability"
	"github.com/tradepost-erp/tradepost/internal/party"
	"github.com/tradepost-erp/tradepost/internal/payments"
	"github.com/tradepost-erp/tradepost/internal/platform/cache"
	"github.com/tradepost-erp/tradepost/internal/platform/db"
	"github.com/tradepost-erp/tradepost/internal/reports"
	"github.com/tradepost-erp/tradepost/internal/shared"
	"github.com/tradepost-erp/tradepost/internal/stockaudit"
	"github.com/tradepost-erp/tradepost/internal/syslog"
)

// accountNamer resolves report headers from the party and bank registries.
type accountNamer struct {
	parties *party.Service
	banks   *bank.Service
}

func (n accountNamer) AccountName(ctx context.Context, kind ledger.AccountKind, id int64) (string, error) {
	switch kind {
	case ledger.KindBank:
		b, err := n.banks.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return b.Name, nil
	default:
		p, err := n.parties.Get(ctx, id)
		if err != nil {
			return "", err
		}
		return p.Name, nil
	}
}

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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, reports run uncached", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	partyService := party.NewService(party.NewRepository(pool))
	paymentService := payments.NewService(payments.NewRepository(pool))
	paymentService.PostingCounter = metrics.CountPosting
	itemService := items.NewService(items.NewRepository(pool))
	auditService := stockaudit.NewService(stockaudit.NewRepository(pool))
	bankService := bank.NewService(bank.NewRepository(pool))
	bankService.PostingCounter = metrics.CountPosting
	expenseService := expense.NewService(expense.NewRepository(pool))
	authService := auth.NewService(auth.NewRepository(pool), cfg.JWTSecret, cfg.TokenTTL)
	syslogStore := syslog.NewStore(pool)

	reportCache := reports.NewCache(redisClient, cfg.ReportCacheTTL)
	reportService := reports.NewService(
		ledgerService,
		expenseService,
		accountNamer{parties: partyService, banks: bankService},
		reportCache,
	)

	router := app.NewRouter(app.RouterParams{
		Logger:   logger,
		Config:   cfg,
		ErrorLog: syslogStore,
		Metrics:  metrics,

		AuthService: authService,
		Idempotency: shared.NewIdempotencyStore(pool),

		AuthHandler:       auth.NewHandler(logger, authService),
		PartyHandler:      party.NewHandler(logger, partyService),
		SupplierPayments:  payments.NewHandler(logger, paymentService, payments.KindSupplier),
		CustomerReceipts:  payments.NewHandler(logger, paymentService, payments.KindCustomer),
		ItemHandler:       items.NewHandler(logger, itemService),
		StockAuditHandler: stockaudit.NewHandler(logger, auditService),
		BankHandler:       bank.NewHandler(logger, bankService),
		ExpenseHandler:    expense.NewHandler(logger, expenseService),
		ReportHandler:     reports.NewHandler(logger, reportService),
		SyslogHandler:     syslog.NewHandler(logger, syslogStore),
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
		logger.Error("shutdown", slog.Any("error", err))
	}
}
