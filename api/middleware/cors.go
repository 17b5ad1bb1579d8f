package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS admits browser calls from the contractor front end. Auth is by bearer
// token, never cookies, so credentials stay disabled.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, "Idempotent-Replayed", "Retry-After", "Content-Disposition"},
		MaxAge:         600,
	})
}
