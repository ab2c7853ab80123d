package middleware

import (
	"net/http"
	"strings"
)

// BodyLimit caps JSON bodies. Multipart uploads are skipped; the attachment
// handler applies its own limit.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			multipart := strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/")
			if maxBytes > 0 && !multipart && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
