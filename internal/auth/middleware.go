package auth

import (
	"net/http"
	"strings"

	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// RequireAuth rejects requests without a valid bearer token and injects
// the resolved user context for downstream handlers.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httpx.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		user, err := s.Identify(r.Context(), token)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithUser(r.Context(), &user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const scheme = "Bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	token := strings.TrimSpace(header[len(scheme):])
	return token, token != ""
}
