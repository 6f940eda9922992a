package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the widget to be embedded on another origin. Only real preflight
// requests are answered here; other OPTIONS requests reach the route handler.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		MaxAge:         300,
	})
}
