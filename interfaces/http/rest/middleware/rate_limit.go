package middleware

import (
	"net"
	"net/http"

	"myblog-backend/pkg/auth"
	"myblog-backend/pkg/errors"
)

// RateLimit rejects clients that exhausted their token bucket with RATE_LIMIT.
// It expects RealIP to have run so RemoteAddr holds the client address.
func RateLimit(limiter *auth.IPRateLimiter, errHandler *errors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				errHandler.Handle(w, r, errors.NewRateLimitError("Rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
