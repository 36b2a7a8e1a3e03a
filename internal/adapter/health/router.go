package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
)

// checkTimeout bounds every readiness probe
const checkTimeout = 2 * time.Second

// Check probes one dependency and returns nil when it is usable
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Response is the JSON body of both endpoints
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter creates the health router.
// /healthz reports liveness; /readyz runs every check and answers 503 if one fails.
func NewRouter(allowedOrigins []string, checks ...Check) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response{Status: "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		resp := Response{Status: "ok", Checks: make(map[string]string, len(checks))}
		code := http.StatusOK
		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				logger.Warn("readiness check failed", logger.Fields{"check": check.Name, "error": err.Error()})
				resp.Checks[check.Name] = err.Error()
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[check.Name] = "ok"
		}

		writeJSON(w, code, resp)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write health response", err, nil)
	}
}
