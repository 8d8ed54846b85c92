package api

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

type InterviewsHandler struct {
	interviewRepo repository.InterviewRepo
	production    bool
}

func NewInterviewsHandler(ir repository.InterviewRepo, production bool) *InterviewsHandler {
	return &InterviewsHandler{interviewRepo: ir, production: production}
}

type interviewsResponse struct {
	Success    bool               `json:"success"`
	Interviews []models.Interview `json:"interviews"`
}

// ListByUser returns the requester's own interviews, newest first.
func (h *InterviewsHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	interviews, err := h.interviewRepo.ListInterviewsByUser(r.Context(), userID)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	if interviews == nil {
		interviews = []models.Interview{}
	}

	writeJSON(w, interviewsResponse{Success: true, Interviews: interviews}, http.StatusOK)
}

// ListLatest returns finalized interviews owned by other users, newest first.
func (h *InterviewsHandler) ListLatest(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "Limit must be between 1 and 100")
			return
		}
		limit = n
	}

	interviews, err := h.interviewRepo.ListLatestInterviews(r.Context(), userID, limit)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	if interviews == nil {
		interviews = []models.Interview{}
	}

	writeJSON(w, interviewsResponse{Success: true, Interviews: interviews}, http.StatusOK)
}

func (h *InterviewsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interview ID")
		return
	}

	interview, err := h.interviewRepo.GetInterviewByID(r.Context(), id)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	if interview == nil {
		writeError(w, http.StatusNotFound, "Interview not found")
		return
	}

	writeJSON(w, map[string]any{"success": true, "interview": interview}, http.StatusOK)
}
