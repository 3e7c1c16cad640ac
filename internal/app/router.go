package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tradepost-erp/tradepost/internal/auth"
	"github.com/tradepost-erp/tradepost/internal/bank"
	"github.com/tradepost-erp/tradepost/internal/expense"
	"github.com/tradepost-erp/tradepost/internal/masterdata/items"
	"github.com/tradepost-erp/tradepost/internal/observability"
	"github.com/tradepost-erp/tradepost/internal/party"
	"github.com/tradepost-erp/tradepost/internal/payments"
	"github.com/tradepost-erp/tradepost/internal/reports"
	"github.com/tradepost-erp/tradepost/internal/shared"
	"github.com/tradepost-erp/tradepost/internal/stockaudit"
	"github.com/tradepost-erp/tradepost/internal/syslog"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthService *auth.Service
	Idempotency *shared.IdempotencyStore

	AuthHandler       *auth.Handler
	PartyHandler      *party.Handler
	SupplierPayments  *payments.Handler
	CustomerReceipts  *payments.Handler
	ItemHandler       *items.Handler
	StockAuditHandler *stockaudit.Handler
	BankHandler       *bank.Handler
	ExpenseHandler    *expense.Handler
	ReportHandler     *reports.Handler
	SyslogHandler     *syslog.Handler

	ErrorLog ErrorSink
	Metrics  *observability.Metrics
}

// NewRouter constructs the chi.Router for the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}
	r.Use(ErrorLogMiddleware(params.ErrorLog, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountPublicRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthService.Middleware)
			r.Use(IdempotencyMiddleware(params.Idempotency, params.Logger))

			r.Route("/users", params.AuthHandler.MountUserRoutes)
			r.Route("/parties", func(r chi.Router) {
				params.PartyHandler.MountRoutes(r)
				r.Get("/{id}/statement", params.ReportHandler.PartyStatementByPath)
			})
			r.Route("/supplier-payments", params.SupplierPayments.MountRoutes)
			r.Route("/customer-receipts", params.CustomerReceipts.MountRoutes)
			r.Route("/items", params.ItemHandler.MountRoutes)
			r.Route("/stock-audits", params.StockAuditHandler.MountRoutes)
			r.Route("/banks", params.BankHandler.MountRoutes)
			r.Route("/expense-heads", params.ExpenseHandler.MountHeadRoutes)
			r.Route("/expenses", params.ExpenseHandler.MountRoutes)
			r.Route("/reports", params.ReportHandler.MountRoutes)
			r.Route("/system-logs", params.SyslogHandler.MountRoutes)
		})
	})

	return r
}
