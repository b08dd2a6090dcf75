package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// RateLimit rejects requests beyond perSecond sustained (with burst) with
// 429. A non-positive perSecond disables the limit.
func RateLimit(perSecond float64, burst int) Middleware {
	if perSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.WriteJSON(w, http.StatusTooManyRequests, response.Response{
					Status: response.StatusError,
					Error:  "too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
