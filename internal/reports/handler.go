package reports

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
)

// Handler wires HTTP endpoints for reports.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bank-ledger", h.bankLedger)
	r.Get("/party-statement", h.partyStatement)
	r.Get("/expense-summary", h.expenseSummary)
}

func (h *Handler) bankLedger(w http.ResponseWriter, r *http.Request) {
	h.ledgerReport(w, r, "bank_id", h.service.BankLedger, "bank-ledger.csv")
}

func (h *Handler) partyStatement(w http.ResponseWriter, r *http.Request) {
	h.ledgerReport(w, r, "party_id", h.service.PartyStatement, "party-statement.csv")
}

// PartyStatementByPath serves the ledger statement of the party named in the
// URL, for mounting under the parties resource.
func (h *Handler) PartyStatementByPath(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid party id")
		return
	}
	from, to, err := periodParams(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.service.PartyStatement(r.Context(), id, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, "party-statement.csv", func() error { return WriteLedgerCSV(w, report) })
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) ledgerReport(w http.ResponseWriter, r *http.Request, idKey string, build func(ctx context.Context, id int64, from, to time.Time) (LedgerReport, error), filename string) {
	id, err := strconv.ParseInt(r.URL.Query().Get(idKey), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "invalid "+idKey)
		return
	}
	from, to, err := periodParams(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := build(r.Context(), id, from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, filename, func() error { return WriteLedgerCSV(w, report) })
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) expenseSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := periodParams(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.service.ExpenseSummary(r.Context(), from, to)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, "expense-summary.csv", func() error { return WriteExpenseSummaryCSV(w, report) })
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		httpx.Fail(w, http.StatusNotFound, "account not found")
	default:
		h.logger.Error("report request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func writeCSV(w http.ResponseWriter, filename string, write func() error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_ = write()
}

func periodParams(r *http.Request) (time.Time, time.Time, error) {
	parse := func(key string) (time.Time, error) {
		v := r.URL.Query().Get(key)
		if v == "" {
			return time.Time{}, nil
		}
		return time.Parse("2006-01-02", v)
	}
	from, err := parse("start_date")
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start_date")
	}
	to, err := parse("end_date")
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end_date")
	}
	return from, to, nil
}
