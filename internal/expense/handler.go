package expense

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// Handler wires HTTP endpoints for expense heads and vouchers.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the expense handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountHeadRoutes registers expense head routes.
func (h *Handler) MountHeadRoutes(r chi.Router) {
	r.Get("/", h.listHeads)
	r.Post("/", h.createHead)
	r.Put("/{id}", h.updateHead)
	r.Delete("/{id}", h.deleteHead)
}

// MountRoutes registers expense voucher routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) listHeads(w http.ResponseWriter, r *http.Request) {
	heads, err := h.service.ListHeads(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, heads)
}

func (h *Handler) createHead(w http.ResponseWriter, r *http.Request) {
	var req HeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	head, err := h.service.CreateHead(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, head)
}

func (h *Handler) updateHead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid head id")
		return
	}
	var req HeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	head, err := h.service.UpdateHead(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, head)
}

func (h *Handler) deleteHead(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid head id")
		return
	}
	if err := h.service.DeleteHead(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "expense head deleted", nil)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePageRequest(r)
	filters := ListFilters{Limit: page.Limit, Offset: page.Offset()}
	if v := r.URL.Query().Get("head_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "invalid head_id")
			return
		}
		filters.HeadID = id
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
	expenses, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSONList(w, http.StatusOK, expenses, page.Meta(total))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	actor, _ := shared.ActorFromContext(r.Context())
	e, err := h.service.Create(r.Context(), actor.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	var req UpdateExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid expense id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "expense deleted", nil)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrHeadNotFound):
		httpx.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrHeadInUse), errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrBadAmount):
		httpx.Fail(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("expense request failed", slog.Any("error", err))
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
