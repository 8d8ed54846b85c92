package repository

import (
	"context"
	"errors"

	"github.com/voxprep/voxprep/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated,
	// e.g. a second signup with the same email.
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type InterviewRepo interface {
	CreateInterview(ctx context.Context, in *models.Interview) (string, error)
	GetInterviewByID(ctx context.Context, id string) (*models.Interview, error)
	ListInterviewsByUser(ctx context.Context, userID string) ([]models.Interview, error)
	// ListLatestInterviews returns finalized interviews owned by users other
	// than excludeUserID, newest first.
	ListLatestInterviews(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error)
}

type FeedbackRepo interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) (string, error)
	// UpdateFeedback overwrites an existing record in place. It returns
	// ErrNotFound when id does not resolve.
	UpdateFeedback(ctx context.Context, f *models.Feedback) error
	GetFeedbackByID(ctx context.Context, id string) (*models.Feedback, error)
	GetFeedbackByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}
