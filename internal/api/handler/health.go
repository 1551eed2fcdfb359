package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health answers /healthz; a failing backend yields 503.
func Health(backend Pinger, driver string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		payload := map[string]any{
			"status":  "ok",
			"storage": driver,
			"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		}
		if backend != nil {
			if err := backend.Ping(ctx); err != nil {
				payload["status"] = "degraded"
				payload["error"] = err.Error()
				respondJSON(w, http.StatusServiceUnavailable, payload)
				return
			}
		}
		respondJSON(w, http.StatusOK, payload)
	}
}
