package models

// Domain models matching the database schema in db/migrations/0001_init.sql

type User struct {
	ID           string `json:"id" db:"id"`
	Name         string `json:"name" db:"name" validate:"required"`
	Email        string `json:"email" db:"email" validate:"required,email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Created      int64  `json:"created" db:"created"`
	Updated      int64  `json:"updated" db:"updated"`
}

type Interview struct {
	ID         string   `json:"id" db:"id"`
	Role       string   `json:"role" db:"role"`
	Type       string   `json:"type" db:"type"`
	Level      string   `json:"level" db:"level"`
	TechStack  []string `json:"techstack" db:"techstack"`
	Questions  []string `json:"questions" db:"questions"`
	UserID     string   `json:"userId" db:"user_id"`
	Finalized  bool     `json:"finalized" db:"finalized"`
	CoverImage string   `json:"coverImage" db:"cover_image"`
	// CreatedAt is an RFC3339 UTC string so that lexicographic order
	// matches chronological order.
	CreatedAt string `json:"createdAt" db:"created_at"`
}

type CategoryScore struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

type Feedback struct {
	ID                  string          `json:"id" db:"id"`
	InterviewID         string          `json:"interviewId" db:"interview_id"`
	UserID              string          `json:"userId" db:"user_id"`
	TotalScore          int             `json:"totalScore" db:"total_score"`
	CategoryScores      []CategoryScore `json:"categoryScores" db:"category_scores"`
	Strengths           []string        `json:"strengths" db:"strengths"`
	AreasForImprovement []string        `json:"areasForImprovement" db:"areas_for_improvement"`
	FinalAssessment     string          `json:"finalAssessment" db:"final_assessment"`
	CreatedAt           string          `json:"createdAt" db:"created_at"`
}

// TranscriptTurn is one finalized utterance in a voice conversation,
// attributed to the "user", "assistant" or "system" role.
type TranscriptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
