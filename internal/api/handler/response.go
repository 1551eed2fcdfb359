package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	respondJSON(w, status, map[string]any{"data": data})
}

func respondError(w http.ResponseWriter, status int, action string, err error) {
	respondJSON(w, status, map[string]any{
		"error":  err.Error(),
		"action": action,
	})
}
