package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/voxprep/voxprep/pkg/repository"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, errorResponse{Success: false, Message: message}, status)
}

// writeDomainError maps pipeline and repository errors onto the HTTP error
// taxonomy. Outside production the underlying message is surfaced for
// diagnosis; in production 5xx detail is suppressed to a generic message.
func writeDomainError(w http.ResponseWriter, err error, production bool) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "Already exists")
	default:
		// upstream failures and malformed model output (ErrGenerationParse)
		// both surface as a generic 500
		writeUpstreamError(w, err, production)
	}
}

func writeUpstreamError(w http.ResponseWriter, err error, production bool) {
	logger.Error("request failed", slog.Any("err", err))
	if production {
		writeError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
