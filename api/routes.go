package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/voxprep/voxprep/internal/auth"
	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/db"
	"github.com/voxprep/voxprep/internal/feedback"
	"github.com/voxprep/voxprep/internal/interview"
	"github.com/voxprep/voxprep/internal/llm"
	"github.com/voxprep/voxprep/internal/repository/sqlite"
)

func SetupRoutes(cfg *config.Config, database *db.DB, provider llm.Provider) (*mux.Router, error) {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware(cfg.AllowedOrigins))
	r.Use(RecoveryMiddleware)
	r.Use(RateLimitMiddleware(NewRateLimiter(cfg.RateLimit.GeneralLimit, cfg.RateLimit.Window)))

	production := cfg.IsProduction()

	// Repository
	repo := sqlite.New(database, logger)

	tokens, err := auth.NewService(cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		return nil, err
	}

	questionEngine := interview.NewEngine(provider, repo, logger)
	feedbackEngine, err := feedback.NewEngine(provider, repo, repo, logger)
	if err != nil {
		return nil, err
	}

	// Create handlers
	systemHandler := NewSystemHandler()
	authHandler := NewAuthHandler(repo, tokens, production)
	interviewsHandler := NewInterviewsHandler(repo, production)
	feedbackHandler := NewFeedbackHandler(feedbackEngine, repo, production)
	generateHandler := NewGenerateHandler(questionEngine, production)

	gate := SessionGate(tokens)
	authLimit := RateLimitMiddleware(NewRateLimiter(cfg.RateLimit.AuthLimit, cfg.RateLimit.Window))

	// Open endpoints
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.Handle("/auth/signup", authLimit(http.HandlerFunc(authHandler.Signup))).Methods("POST")
	r.Handle("/auth/signin", authLimit(http.HandlerFunc(authHandler.Signin))).Methods("POST")
	r.HandleFunc("/auth/signout", authHandler.Signout).Methods("POST")
	r.Handle("/auth/me", gate(http.HandlerFunc(authHandler.Me))).Methods("GET")

	// Question generation is called by the voice workflow without a session;
	// the payload itself is validated.
	r.HandleFunc("/vapi/generate", generateHandler.Generate).Methods("POST")

	// Protected routes
	interviews := r.PathPrefix("/interviews").Subrouter()
	interviews.Use(gate)
	interviews.HandleFunc("/user", interviewsHandler.ListByUser).Methods("GET")
	interviews.HandleFunc("/latest", interviewsHandler.ListLatest).Methods("GET")
	interviews.HandleFunc("/{id}", interviewsHandler.GetByID).Methods("GET")

	fb := r.PathPrefix("/feedback").Subrouter()
	fb.Use(gate)
	fb.HandleFunc("", feedbackHandler.Create).Methods("POST")
	fb.HandleFunc("/by-interview/{id}", feedbackHandler.ByInterview).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})

	return r, nil
}
