package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/voxprep/voxprep/internal/feedback"
	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

type FeedbackHandler struct {
	engine       *feedback.Engine
	feedbackRepo repository.FeedbackRepo
	production   bool
}

func NewFeedbackHandler(engine *feedback.Engine, fr repository.FeedbackRepo, production bool) *FeedbackHandler {
	return &FeedbackHandler{engine: engine, feedbackRepo: fr, production: production}
}

type createFeedbackRequest struct {
	InterviewID string                  `json:"interviewId"`
	Transcript  []models.TranscriptTurn `json:"transcript"`
	FeedbackID  string                  `json:"feedbackId,omitempty"`
}

var validTurnRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
}

// Create runs the feedback generation pipeline for a finished call.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if _, err := uuid.Parse(req.InterviewID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interview ID")
		return
	}
	if len(req.Transcript) == 0 {
		writeError(w, http.StatusBadRequest, "Transcript must be a non-empty array")
		return
	}
	for _, turn := range req.Transcript {
		if !validTurnRoles[turn.Role] {
			writeError(w, http.StatusBadRequest, "Invalid role in transcript")
			return
		}
		if strings.TrimSpace(turn.Content) == "" {
			writeError(w, http.StatusBadRequest, "Content cannot be empty")
			return
		}
	}
	if req.FeedbackID != "" {
		if _, err := uuid.Parse(req.FeedbackID); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid feedback ID")
			return
		}
	}

	feedbackID, err := h.engine.Generate(r.Context(), feedback.GenerateInput{
		InterviewID: req.InterviewID,
		Transcript:  req.Transcript,
		FeedbackID:  req.FeedbackID,
		UserID:      userID,
	})
	if err != nil {
		writeDomainError(w, err, h.production)
		return
	}

	writeJSON(w, map[string]any{"success": true, "feedbackId": feedbackID}, http.StatusOK)
}

// ByInterview returns the requester's feedback for an interview, or null.
func (h *FeedbackHandler) ByInterview(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid interview ID")
		return
	}

	fb, err := h.feedbackRepo.GetFeedbackByInterviewAndUser(r.Context(), id, userID)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}

	writeJSON(w, map[string]any{"success": true, "feedback": fb}, http.StatusOK)
}
