package api

import (
	"net/http"
	"time"
)

type SystemHandler struct {
	start time.Time
}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{start: time.Now()}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"success":   true,
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.start).Seconds(),
	}, http.StatusOK)
}
