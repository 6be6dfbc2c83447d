package api

import (
	"log"
	"net/http"
	"strings"

	"narrative-backend/internal/config"

	"github.com/go-chi/cors"
)

// CORS builds the cross-origin middleware for the configured policy.
//
// Permissive mode applies the static allow-list. Strict mode also
// accepts origins containing trusted-domain substrings, and answers
// disallowed origins with an explicit 403 instead of silently
// stripping the CORS headers. Requests without an Origin header
// (curl, mobile apps) always pass.
func CORS(cfg config.Config) func(http.Handler) http.Handler {
	allowed := cfg.AllowedOrigins()
	strict := cfg.CORSMode == config.CORSModeStrict

	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if strict {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return originAllowed(allowed, origin)
		}
	} else {
		opts.AllowedOrigins = allowed
	}
	corsHandler := cors.Handler(opts)

	return func(next http.Handler) http.Handler {
		inner := corsHandler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if strict && origin != "" && r.Method != http.MethodOptions && !originAllowed(allowed, origin) {
				log.Printf("CORS rejecting origin: %s", origin)
				writeJSON(w, http.StatusForbidden, map[string]any{
					"error":          "CORS policy violation",
					"origin":         origin,
					"allowedOrigins": allowed,
				})
				return
			}
			inner.ServeHTTP(w, r)
		})
	}
}

func originAllowed(allowed []string, origin string) bool {
	for _, o := range allowed {
		if origin == o {
			return true
		}
	}
	return strings.Contains(origin, "vercel.app") || strings.Contains(origin, "localhost")
}

// Recoverer converts handler panics into the JSON error shape the rest
// of the API uses. Internal detail is only echoed in development.
func Recoverer(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("Server error: %v", rec)
					details := "Something went wrong"
					if cfg.Development() {
						details = strings.TrimSpace(strings.SplitN(sprint(rec), "\n", 2)[0])
					}
					writeJSON(w, http.StatusInternalServerError, map[string]any{
						"error":   "Internal server error",
						"details": details,
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func sprint(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unexpected panic"
}
