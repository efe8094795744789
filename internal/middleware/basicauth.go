package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BasicAuth guards admin routes such as /metrics. An empty user disables the
// check; the admin listener is then expected to be bound to loopback.
func BasicAuth(user, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if user == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 ||
				subtle.ConstantTimeCompare([]byte(p), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				unauthorized(w, "Credenciais de administrador inválidas.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
