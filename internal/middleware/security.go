package middleware

import (
	"net/http"
)

// SecurityHeaders adds security headers to HTTP responses
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Referrer policy
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// API-only surface: no embedded content of any kind
		w.Header().Set("Content-Security-Policy",
			"default-src 'none'; connect-src 'self' ws: wss:; frame-ancestors 'none'")

		next.ServeHTTP(w, r)
	})
}
