package web

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"pulse-cli/internal/store"
)

// requireBasicAuth guards next when credentials are configured. /health stays
// open so supervisors can probe the process.
func requireBasicAuth(auth *store.BasicAuth, next http.Handler) http.Handler {
	if auth == nil || strings.TrimSpace(auth.Username) == "" {
		return next
	}
	username, password := auth.Username, auth.Password
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="pulse", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
