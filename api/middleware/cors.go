package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/libratech/libratech-backend/pkg/config"
)

// CORS applies the configured origin allowlist. Credentials stay enabled
// because the access token travels in a cookie.
func CORS(access config.AccessConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   access.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
