package feedback_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/internal/feedback"
	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
	"github.com/voxprep/voxprep/pkg/repository/mock"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
	systems  []string
}

func (f *fakeProvider) GenerateText(ctx context.Context, prompt, system string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeProvider) GetProviderName() string { return "fake" }

const validFeedbackJSON = `{
  "totalScore": 72,
  "categoryScores": [
    {"name": "Communication Skills", "score": 80, "comment": "Clear answers."},
    {"name": "Technical Knowledge", "score": 70, "comment": "Solid fundamentals."},
    {"name": "Problem-Solving", "score": 65, "comment": "Reasonable approach."},
    {"name": "Cultural & Role Fit", "score": 75, "comment": "Good alignment."},
    {"name": "Confidence & Clarity", "score": 70, "comment": "Mostly confident."}
  ],
  "strengths": ["Communicates clearly"],
  "areasForImprovement": ["Deepen database knowledge"],
  "finalAssessment": "A capable candidate with room to grow."
}`

func newTestEngine(t *testing.T, provider *fakeProvider, m *mock.Mocks) *feedback.Engine {
	t.Helper()
	engine, err := feedback.NewEngine(provider, m.Feedback, m.Interviews, nil)
	if err != nil {
		t.Fatalf("NewEngine error: %v", err)
	}
	return engine
}

func seedInterview(t *testing.T, m *mock.Mocks, userID string) string {
	t.Helper()
	id, err := m.Interviews.CreateInterview(context.Background(), &models.Interview{
		Role: "Backend Developer", Type: "Technical", Level: "Senior",
		UserID: userID, Finalized: true,
	})
	if err != nil {
		t.Fatalf("seed interview: %v", err)
	}
	return id
}

func TestGenerate_CreatesFeedback(t *testing.T) {
	m := mock.NewMocks()
	provider := &fakeProvider{response: "Here is my evaluation:\n" + validFeedbackJSON}
	engine := newTestEngine(t, provider, m)

	interviewID := seedInterview(t, m, "owner")

	id, err := engine.Generate(context.Background(), feedback.GenerateInput{
		InterviewID: interviewID,
		Transcript: []models.TranscriptTurn{
			{Role: "assistant", Content: "Tell me about channels."},
			{Role: "user", Content: "Channels synchronize goroutines."},
		},
		UserID: "candidate",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	stored, err := m.Feedback.GetFeedbackByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetFeedbackByID error: %v", err)
	}
	if stored == nil {
		t.Fatalf("feedback was not persisted")
	}
	if stored.UserID != "candidate" {
		t.Errorf("feedback must be recorded under the authenticated user, got %q", stored.UserID)
	}
	if stored.TotalScore != 72 {
		t.Errorf("expected total score 72, got %d", stored.TotalScore)
	}
	if len(stored.CategoryScores) != 5 {
		t.Errorf("expected 5 category scores, got %d", len(stored.CategoryScores))
	}

	if len(provider.prompts) != 1 {
		t.Fatalf("expected one provider call, got %d", len(provider.prompts))
	}
	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "- assistant: Tell me about channels.") {
		t.Errorf("prompt missing flattened assistant turn:\n%s", prompt)
	}
	if !strings.Contains(prompt, "- user: Channels synchronize goroutines.") {
		t.Errorf("prompt missing flattened user turn:\n%s", prompt)
	}
	if provider.systems[0] == "" {
		t.Errorf("expected a system instruction for the evaluator")
	}
}

func TestGenerate_MissingInterview(t *testing.T) {
	m := mock.NewMocks()
	engine := newTestEngine(t, &fakeProvider{response: validFeedbackJSON}, m)

	_, err := engine.Generate(context.Background(), feedback.GenerateInput{
		InterviewID: uuid.NewString(),
		Transcript:  []models.TranscriptTurn{{Role: "user", Content: "hi"}},
		UserID:      "candidate",
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerate_UpdatesInPlace(t *testing.T) {
	m := mock.NewMocks()
	provider := &fakeProvider{response: validFeedbackJSON}
	engine := newTestEngine(t, provider, m)

	interviewID := seedInterview(t, m, "owner")

	existingID, err := m.Feedback.CreateFeedback(context.Background(), &models.Feedback{
		InterviewID: interviewID, UserID: "candidate", TotalScore: 10,
	})
	if err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	id, err := engine.Generate(context.Background(), feedback.GenerateInput{
		InterviewID: interviewID,
		Transcript:  []models.TranscriptTurn{{Role: "user", Content: "hello"}},
		FeedbackID:  existingID,
		UserID:      "candidate",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if id != existingID {
		t.Fatalf("expected the existing id %q back, got %q", existingID, id)
	}
	if m.Feedback.Len() != 1 {
		t.Fatalf("resubmission must not create a second record, have %d", m.Feedback.Len())
	}

	stored, err := m.Feedback.GetFeedbackByID(context.Background(), existingID)
	if err != nil {
		t.Fatalf("GetFeedbackByID error: %v", err)
	}
	if stored.TotalScore != 72 {
		t.Fatalf("expected record overwritten, total score is %d", stored.TotalScore)
	}
}

func TestGenerate_UpdateRejections(t *testing.T) {
	m := mock.NewMocks()
	engine := newTestEngine(t, &fakeProvider{response: validFeedbackJSON}, m)

	interviewID := seedInterview(t, m, "owner")

	foreignID, err := m.Feedback.CreateFeedback(context.Background(), &models.Feedback{
		InterviewID: interviewID, UserID: "someone-else",
	})
	if err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	tests := []struct {
		name       string
		feedbackID string
	}{
		{"MissingFeedback", uuid.NewString()},
		{"ForeignFeedback", foreignID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Generate(context.Background(), feedback.GenerateInput{
				InterviewID: interviewID,
				Transcript:  []models.TranscriptTurn{{Role: "user", Content: "hello"}},
				FeedbackID:  tt.feedbackID,
				UserID:      "candidate",
			})
			if !errors.Is(err, repository.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestGenerate_ParseRejections(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"NoJSONObject", "I cannot evaluate this interview."},
		{"InvalidJSON", "{not json}"},
		{"MissingAssessment", `{
			"totalScore": 50,
			"categoryScores": [
				{"name": "Communication Skills", "score": 50, "comment": "ok"},
				{"name": "Technical Knowledge", "score": 50, "comment": "ok"},
				{"name": "Problem-Solving", "score": 50, "comment": "ok"},
				{"name": "Cultural & Role Fit", "score": 50, "comment": "ok"},
				{"name": "Confidence & Clarity", "score": 50, "comment": "ok"}
			],
			"strengths": [],
			"areasForImprovement": []
		}`},
		{"WrongCategoryName", `{
			"totalScore": 50,
			"categoryScores": [
				{"name": "Charisma", "score": 50, "comment": "ok"},
				{"name": "Technical Knowledge", "score": 50, "comment": "ok"},
				{"name": "Problem-Solving", "score": 50, "comment": "ok"},
				{"name": "Cultural & Role Fit", "score": 50, "comment": "ok"},
				{"name": "Confidence & Clarity", "score": 50, "comment": "ok"}
			],
			"strengths": [],
			"areasForImprovement": [],
			"finalAssessment": "ok"
		}`},
		{"ScoreOutOfRange", `{
			"totalScore": 150,
			"categoryScores": [
				{"name": "Communication Skills", "score": 50, "comment": "ok"},
				{"name": "Technical Knowledge", "score": 50, "comment": "ok"},
				{"name": "Problem-Solving", "score": 50, "comment": "ok"},
				{"name": "Cultural & Role Fit", "score": 50, "comment": "ok"},
				{"name": "Confidence & Clarity", "score": 50, "comment": "ok"}
			],
			"strengths": [],
			"areasForImprovement": [],
			"finalAssessment": "ok"
		}`},
		{"TooFewCategories", `{
			"totalScore": 50,
			"categoryScores": [
				{"name": "Communication Skills", "score": 50, "comment": "ok"}
			],
			"strengths": [],
			"areasForImprovement": [],
			"finalAssessment": "ok"
		}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mock.NewMocks()
			engine := newTestEngine(t, &fakeProvider{response: tt.response}, m)
			interviewID := seedInterview(t, m, "owner")

			_, err := engine.Generate(context.Background(), feedback.GenerateInput{
				InterviewID: interviewID,
				Transcript:  []models.TranscriptTurn{{Role: "user", Content: "hello"}},
				UserID:      "candidate",
			})
			if !errors.Is(err, feedback.ErrGenerationParse) {
				t.Fatalf("expected ErrGenerationParse, got %v", err)
			}
			if m.Feedback.Len() != 0 {
				t.Fatalf("rejected output must not be persisted")
			}
		})
	}
}
