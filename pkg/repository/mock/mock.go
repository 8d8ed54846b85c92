package mock

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

// Test helpers and mocks
type Mocks struct {
	Users      *UserRepo
	Interviews *InterviewRepo
	Feedback   *FeedbackRepo
}

func NewMocks() *Mocks {
	return &Mocks{
		Users:      &UserRepo{byID: make(map[string]*models.User)},
		Interviews: &InterviewRepo{byID: make(map[string]*models.Interview)},
		Feedback:   &FeedbackRepo{byID: make(map[string]*models.Feedback)},
	}
}

type UserRepo struct {
	byID      map[string]*models.User
	CreateErr error
}

func (m *UserRepo) CreateUser(ctx context.Context, u *models.User) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return "", repository.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	stored := *u
	m.byID[u.ID] = &stored
	return u.ID, nil
}

func (m *UserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.byID[id], nil
}

func (m *UserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type InterviewRepo struct {
	byID      map[string]*models.Interview
	CreateErr error
}

func (m *InterviewRepo) CreateInterview(ctx context.Context, in *models.Interview) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	stored := *in
	m.byID[in.ID] = &stored
	return in.ID, nil
}

func (m *InterviewRepo) GetInterviewByID(ctx context.Context, id string) (*models.Interview, error) {
	return m.byID[id], nil
}

func (m *InterviewRepo) ListInterviewsByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	var out []models.Interview
	for _, in := range m.byID {
		if in.UserID == userID {
			out = append(out, *in)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *InterviewRepo) ListLatestInterviews(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	var out []models.Interview
	for _, in := range m.byID {
		if in.Finalized && in.UserID != excludeUserID {
			out = append(out, *in)
		}
	}
	sortByCreatedDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByCreatedDesc(list []models.Interview) {
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt > list[j].CreatedAt })
}

type FeedbackRepo struct {
	byID      map[string]*models.Feedback
	CreateErr error
}

func (m *FeedbackRepo) CreateFeedback(ctx context.Context, f *models.Feedback) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	for _, existing := range m.byID {
		if existing.InterviewID == f.InterviewID && existing.UserID == f.UserID {
			return "", repository.ErrDuplicate
		}
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	stored := *f
	m.byID[f.ID] = &stored
	return f.ID, nil
}

func (m *FeedbackRepo) UpdateFeedback(ctx context.Context, f *models.Feedback) error {
	if _, ok := m.byID[f.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *f
	m.byID[f.ID] = &stored
	return nil
}

func (m *FeedbackRepo) GetFeedbackByID(ctx context.Context, id string) (*models.Feedback, error) {
	return m.byID[id], nil
}

func (m *FeedbackRepo) GetFeedbackByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	for _, f := range m.byID {
		if f.InterviewID == interviewID && f.UserID == userID {
			return f, nil
		}
	}
	return nil, nil
}

// Len reports how many feedback records are stored; used by tests asserting
// that resubmission does not create a second record.
func (m *FeedbackRepo) Len() int { return len(m.byID) }
