package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// IdempotencyMiddleware rejects replays of mutating requests that carry an
// Idempotency-Key header. Requests without the header pass through untouched.
func IdempotencyMiddleware(store *shared.IdempotencyStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}
			if err := store.CheckAndInsert(r.Context(), key, r.URL.Path); err != nil {
				if errors.Is(err, shared.ErrIdempotencyConflict) {
					httpx.Fail(w, http.StatusConflict, "request already processed")
					return
				}
				logger.Warn("idempotency check", slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
