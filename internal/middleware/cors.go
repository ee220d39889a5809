package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the listed origins, wildcards such as "https://*.example.com"
// included, to call the API with an Authorization header. An empty list
// denies every cross-origin caller.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", RequestIDHeader, "DNT"},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After", "Content-Disposition"},
		MaxAge:         86400,
	}
	if len(allowedOrigins) == 0 {
		// go-chi/cors treats an empty list as "*".
		opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
	}
	return cors.Handler(opts)
}
