package api

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/voxprep/voxprep/internal/auth"
	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

type AuthHandler struct {
	userRepo   repository.UserRepo
	tokens     *auth.Service
	production bool
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ur repository.UserRepo, tokens *auth.Service, production bool) *AuthHandler {
	return &AuthHandler{userRepo: ur, tokens: tokens, production: production}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	Success bool        `json:"success"`
	User    userPayload `json:"user"`
	Message string      `json:"message,omitempty"`
}

// normalizeEmail lowercases and trims an address, returning ok=false when it
// is not a parseable email.
func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", false
	}
	return email, true
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 2 || len(req.Name) > 50 {
		writeError(w, http.StatusBadRequest, "Name must be between 2 and 50 characters")
		return
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	ctx := r.Context()

	// Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
	}

	userID, err := h.userRepo.CreateUser(ctx, &user)
	if err != nil {
		if err == repository.ErrDuplicate {
			writeError(w, http.StatusConflict, "User already exists")
			return
		}
		writeUpstreamError(w, err, h.production)
		return
	}

	token, err := h.tokens.Issue(userID)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	http.SetCookie(w, h.tokens.SessionCookie(token, h.production))

	writeJSON(w, authResponse{
		Success: true,
		User:    userPayload{ID: userID, Name: user.Name, Email: user.Email},
		Message: "Account created successfully",
	}, http.StatusOK)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	email, ok := normalizeEmail(req.Email)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "Password is required")
		return
	}

	ctx := r.Context()

	user, err := h.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	http.SetCookie(w, h.tokens.SessionCookie(token, h.production))

	writeJSON(w, authResponse{
		Success: true,
		User:    userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
		Message: "Signed in successfully",
	}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens have no server-side revocation; expiring the cookie
	// is the whole operation.
	http.SetCookie(w, h.tokens.ClearCookie(h.production))
	writeJSON(w, map[string]any{"success": true, "message": "Signed out successfully"}, http.StatusOK)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(r.Context(), userID)
	if err != nil {
		writeUpstreamError(w, err, h.production)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, authResponse{
		Success: true,
		User:    userPayload{ID: user.ID, Name: user.Name, Email: user.Email},
	}, http.StatusOK)
}
