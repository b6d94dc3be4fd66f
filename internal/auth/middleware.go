package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware authenticates requests and enforces the role policy.
type Middleware struct {
	secret []byte
	policy Policy
	demo   *Identity
}

// NewMiddleware verifies bearer tokens signed with secret.
func NewMiddleware(secret []byte, policy Policy) *Middleware {
	return &Middleware{secret: secret, policy: policy}
}

// NewDemoMiddleware treats every request as coming from id. Used when
// authentication is disabled for local development.
func NewDemoMiddleware(id Identity, policy Policy) *Middleware {
	return &Middleware{policy: policy, demo: &id}
}

// Wrap applies authentication and authorization to next.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		var id Identity
		if m.demo != nil {
			id = *m.demo
		} else {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := ParseJWT(token, m.secret)
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected token", "component", "auth", "path", r.URL.Path, "error", err)
				writeAuthError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			id = claims.Identity()
		}

		if !m.policy.Allows(r, id.Role) {
			writeAuthError(w, http.StatusForbidden, "role "+string(id.Role)+" may not access this resource")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="society"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
