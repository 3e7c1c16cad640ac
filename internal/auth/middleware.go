package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tradepost-erp/tradepost/internal/platform/httpx"
	"github.com/tradepost-erp/tradepost/internal/shared"
)

// Middleware extracts the bearer token, validates it and loads the actor into
// the request context. Requests without a valid token get 401.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpx.Fail(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := s.ParseToken(token)
		if err != nil {
			httpx.Fail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		actor := shared.Actor{ID: id, Name: claims.Name, Email: claims.Email, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}
