// Package auth guards the generation endpoints with a shared bearer
// secret.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/coverly/warranty-desk/internal/pkg/httputil"
)

// Middleware rejects requests whose Authorization header does not
// carry the configured bearer token. The comparison is constant-time.
// An empty configured token locks the guarded routes entirely.
func Middleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" ||
				subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				httputil.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
