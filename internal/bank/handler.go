package bank

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost-erp/tradepost/internal/ledger"
	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// Handler wires HTTP endpoints for bank accounts.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the bank handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers bank routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/transfer", h.transfer)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/deposit", h.deposit)
	r.Post("/{id}/withdraw", h.withdraw)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	filters := ListFilters{
		Search: r.URL.Query().Get("search"),
		Page:   page.Page,
		Limit:  page.Limit,
	}
	banks, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, banks, page.Meta(total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid bank id")
		return
	}
	b, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBankRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid bank id")
		return
	}
	var req UpdateBankRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid bank id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "bank account deleted", nil)
}

func (h *Handler) deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.Deposit, "deposit recorded")
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.service.Withdraw, "withdrawal recorded")
}

func (h *Handler) move(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id, actorID int64, req MoveRequest) (ledger.Entry, error), message string) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid bank id")
		return
	}
	var req MoveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	entry, err := fn(r.Context(), id, actor.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusCreated, message, entry)
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	entries, err := h.service.Transfer(r.Context(), actor.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusCreated, "transfer completed", entries)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		httpx.Fail(w, http.StatusNotFound, "bank account not found")
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrHasEntries):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientFunds), errors.Is(err, ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidAmount):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("bank request failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
	}
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
