package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

const localStorefront = "http://localhost:3000"

// CORS allows the storefront origin (and local dev) to call the API.
func CORS(storefrontURL string) func(http.Handler) http.Handler {
	origins := []string{localStorefront}
	if origin := strings.TrimRight(strings.TrimSpace(storefrontURL), "/"); origin != "" && origin != localStorefront {
		origins = append(origins, origin)
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Payment-Confirmation"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
