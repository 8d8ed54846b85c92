package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/internal/interview"
)

// GenerateHandler serves the unauthenticated question-generation endpoint
// the voice workflow calls; the payload itself is validated.
type GenerateHandler struct {
	engine     *interview.Engine
	production bool
}

func NewGenerateHandler(engine *interview.Engine, production bool) *GenerateHandler {
	return &GenerateHandler{engine: engine, production: production}
}

type generateRequest struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	Level string `json:"level"`
	// Techstack arrives either as an array of strings or a comma-separated
	// string, depending on the caller.
	Techstack json.RawMessage `json:"techstack"`
	Amount    int             `json:"amount"`
	UserID    string          `json:"userid"`
}

var validTypes = map[string]bool{
	"technical":  true,
	"behavioral": true,
	"mixed":      true,
}

var validLevels = map[string]bool{
	"junior":    true,
	"mid":       true,
	"senior":    true,
	"lead":      true,
	"principal": true,
}

func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if !validTypes[strings.ToLower(strings.TrimSpace(req.Type))] {
		writeError(w, http.StatusBadRequest, "Type must be Technical, Behavioral, or Mixed")
		return
	}
	req.Role = strings.TrimSpace(req.Role)
	if len(req.Role) < 2 || len(req.Role) > 100 {
		writeError(w, http.StatusBadRequest, "Role must be between 2 and 100 characters")
		return
	}
	if !validLevels[strings.ToLower(strings.TrimSpace(req.Level))] {
		writeError(w, http.StatusBadRequest, "Invalid experience level")
		return
	}
	techstack, ok := parseTechstack(req.Techstack)
	if !ok {
		writeError(w, http.StatusBadRequest, "Tech stack is required")
		return
	}
	if req.Amount < 1 || req.Amount > 20 {
		writeError(w, http.StatusBadRequest, "Amount must be between 1 and 20")
		return
	}
	if _, err := uuid.Parse(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	interviewID, err := h.engine.Generate(r.Context(), interview.GenerateInput{
		Role:      req.Role,
		Type:      req.Type,
		Level:     req.Level,
		TechStack: techstack,
		Amount:    req.Amount,
		UserID:    req.UserID,
	})
	if err != nil {
		writeDomainError(w, err, h.production)
		return
	}

	writeJSON(w, map[string]any{"success": true, "interviewId": interviewID}, http.StatusOK)
}

func parseTechstack(raw json.RawMessage) ([]string, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, len(out) > 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		out := interview.SplitTechStack(s)
		return out, len(out) > 0
	}

	return nil, false
}
