package payments

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/party"
	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// Handler serves one payment kind. The router mounts two instances of it:
// supplier payments and customer receipts share every rule except the kind.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	kind     Kind
	validate *validator.Validate
}

// NewHandler constructs a payment handler for one kind.
func NewHandler(logger *slog.Logger, service *Service, kind Kind) *Handler {
	return &Handler{logger: logger, service: service, kind: kind, validate: validator.New()}
}

// MountRoutes registers the voucher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	filters := ListFilters{
		Kind:   h.kind,
		Mode:   Mode(r.URL.Query().Get("payment_mode")),
		Limit:  page.Limit,
		Offset: page.Offset(),
	}
	if v := r.URL.Query().Get("party_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid party_id")
			return
		}
		filters.PartyID = id
	}
	var err error
	if filters.From, err = dateParam(r, "start_date"); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid start_date")
		return
	}
	if filters.To, err = dateParam(r, "end_date"); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid end_date")
		return
	}

	payments, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, payments, page.Meta(total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	p, err := h.service.Get(r.Context(), h.kind, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	p, err := h.service.Create(r.Context(), h.kind, actor.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	var req UpdatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.service.Update(r.Context(), h.kind, id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	if err := h.service.Delete(r.Context(), h.kind, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "payment deleted and balance restored", nil)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, party.ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		httpx.Fail(w, http.StatusNotFound, "payment or party not found")
	case errors.Is(err, ledger.ErrNotLatestEntry):
		httpx.Fail(w, http.StatusConflict, "payment is not the party's latest ledger entry")
	case errors.Is(err, ErrPartyMismatch), errors.Is(err, ErrInvalidKind), errors.Is(err, ErrInvalidMode),
		errors.Is(err, ErrMonetaryEdit), errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidDiscount):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("payment request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func dateParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", v)
}
