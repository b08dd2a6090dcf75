package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the given origins to call the API. With no origins configured
// no CORS headers are sent, so browsers refuse cross-origin calls; rs/cors
// itself would treat an empty list as "*".
func CORS(allowedOrigins []string) Middleware {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
	return c.Handler
}
