package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
)

// CORS builds the cross-origin policy from a comma separated allow-list.
// "*" allows any origin; an empty list allows none.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:       []string{"Authorization", "Content-Type", TraceIDHeader},
		ExposedHeaders:       []string{"Content-Disposition", TraceIDHeader},
		OptionsSuccessStatus: http.StatusNoContent,
	}
	// rs/cors treats an empty list as "*".
	if len(origins) == 0 {
		opts.AllowOriginFunc = func(string) bool { return false }
	}

	return cors.New(opts).Handler
}
