package syslog

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// Handler exposes the system log read-side.
type Handler struct {
	logger *slog.Logger
	store  *Store
}

// NewHandler constructs the syslog handler.
func NewHandler(logger *slog.Logger, store *Store) *Handler {
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers system log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	filters := ListFilters{
		Level:  r.URL.Query().Get("level"),
		Type:   r.URL.Query().Get("type"),
		Limit:  page.Limit,
		Offset: page.Offset(),
	}
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		filters.From = t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		filters.To = t
	}
	entries, total, err := h.store.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("system log request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.JSONList(w, http.StatusOK, entries, page.Meta(total))
}
