package feedback

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/qri-io/jsonschema"

	"github.com/voxprep/voxprep/internal/llm"
	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

// ErrGenerationParse is returned when the model output cannot be parsed or
// does not satisfy the feedback schema.
var ErrGenerationParse = errors.New("generation output is not a valid feedback object")

//go:embed schema.json
var schemaJSON []byte

const evaluatorSystem = "You are a professional interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories"

// GenerateInput holds validated parameters for feedback generation. UserID is
// the authenticated user from the session gate, never a client-supplied one.
type GenerateInput struct {
	InterviewID string
	Transcript  []models.TranscriptTurn
	FeedbackID  string
	UserID      string
}

// feedbackObject mirrors the structured object the model is asked to emit.
type feedbackObject struct {
	TotalScore          int                    `json:"totalScore"`
	CategoryScores      []models.CategoryScore `json:"categoryScores"`
	Strengths           []string               `json:"strengths"`
	AreasForImprovement []string               `json:"areasForImprovement"`
	FinalAssessment     string                 `json:"finalAssessment"`
}

// Engine runs the feedback pipeline: flatten a transcript, ask the model for
// a structured critique, validate it against the feedback schema, and create
// or overwrite the feedback record.
type Engine struct {
	provider      llm.Provider
	feedbackRepo  repository.FeedbackRepo
	interviewRepo repository.InterviewRepo
	schema        *jsonschema.Schema
	logger        *slog.Logger
}

func NewEngine(provider llm.Provider, fr repository.FeedbackRepo, ir repository.InterviewRepo, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaJSON, rs); err != nil {
		return nil, fmt.Errorf("compile feedback schema: %w", err)
	}

	return &Engine{
		provider:      provider,
		feedbackRepo:  fr,
		interviewRepo: ir,
		schema:        rs,
		logger:        logger,
	}, nil
}

// Generate scores a transcript and persists the feedback record. When
// in.FeedbackID is set the existing record is overwritten in place; the
// record is always written under the authenticated user's id.
func (e *Engine) Generate(ctx context.Context, in GenerateInput) (string, error) {
	interview, err := e.interviewRepo.GetInterviewByID(ctx, in.InterviewID)
	if err != nil {
		return "", fmt.Errorf("lookup interview: %w", err)
	}
	if interview == nil {
		return "", fmt.Errorf("interview %s: %w", in.InterviewID, repository.ErrNotFound)
	}

	prompt := buildPrompt(in.Transcript)

	start := time.Now()
	raw, err := e.provider.GenerateText(ctx, prompt, evaluatorSystem)
	if err != nil {
		return "", fmt.Errorf("generate feedback: %w", err)
	}
	e.logger.Info("feedback generation complete",
		slog.String("provider", e.provider.GetProviderName()),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	obj, err := e.parseObject(ctx, raw)
	if err != nil {
		e.logger.Error("feedback parse failed", slog.Any("err", err), slog.String("raw", raw))
		return "", err
	}

	record := &models.Feedback{
		InterviewID:         in.InterviewID,
		UserID:              in.UserID,
		TotalScore:          obj.TotalScore,
		CategoryScores:      obj.CategoryScores,
		Strengths:           obj.Strengths,
		AreasForImprovement: obj.AreasForImprovement,
		FinalAssessment:     obj.FinalAssessment,
		CreatedAt:           time.Now().UTC().Format(time.RFC3339),
	}

	if in.FeedbackID != "" {
		existing, err := e.feedbackRepo.GetFeedbackByID(ctx, in.FeedbackID)
		if err != nil {
			return "", fmt.Errorf("lookup feedback: %w", err)
		}
		// an id owned by another user is indistinguishable from a missing one
		if existing == nil || existing.UserID != in.UserID {
			return "", fmt.Errorf("feedback %s: %w", in.FeedbackID, repository.ErrNotFound)
		}

		record.ID = in.FeedbackID
		if err := e.feedbackRepo.UpdateFeedback(ctx, record); err != nil {
			return "", fmt.Errorf("update feedback: %w", err)
		}
		return record.ID, nil
	}

	id, err := e.feedbackRepo.CreateFeedback(ctx, record)
	if err != nil {
		return "", fmt.Errorf("persist feedback: %w", err)
	}

	return id, nil
}

// buildPrompt flattens the transcript into one line per turn, prefixed by
// role, and wraps it in the evaluator instructions.
func buildPrompt(transcript []models.TranscriptTurn) string {
	var sb strings.Builder
	for _, turn := range transcript {
		fmt.Fprintf(&sb, "- %s: %s\n", turn.Role, turn.Content)
	}

	return fmt.Sprintf(`You are an AI interviewer analyzing a mock interview. Your task is to evaluate the candidate based on structured categories. Be thorough and detailed in your analysis. Don't be lenient with the candidate. If there are mistakes or areas for improvement, point them out.
Transcript:
%s
Respond with a single JSON object with the keys totalScore, categoryScores, strengths, areasForImprovement and finalAssessment, and nothing else.
Please score the candidate from 0 to 100 in the following areas. Do not add categories other than the ones provided:
- **Communication Skills**: Clarity, articulation, structured responses.
- **Technical Knowledge**: Understanding of key concepts for the role.
- **Problem-Solving**: Ability to analyze problems and propose solutions.
- **Cultural & Role Fit**: Alignment with company values and job role.
- **Confidence & Clarity**: Confidence in responses, engagement, and clarity.`, sb.String())
}

// parseObject extracts the JSON object from arbitrary model output and
// validates it against the feedback schema. Any failure is ErrGenerationParse.
func (e *Engine) parseObject(ctx context.Context, raw string) (*feedbackObject, error) {
	j := extractJSON(raw)
	if j == "" {
		return nil, fmt.Errorf("%w: no JSON object found in response", ErrGenerationParse)
	}

	verrs, err := e.schema.ValidateBytes(ctx, []byte(j))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}
	if len(verrs) > 0 {
		var sb strings.Builder
		for _, v := range verrs {
			sb.WriteString(v.Message)
			sb.WriteString("; ")
		}
		return nil, fmt.Errorf("%w: response does not match schema: %s", ErrGenerationParse, sb.String())
	}

	var obj feedbackObject
	if err := json.Unmarshal([]byte(j), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}

	return &obj, nil
}

// extractJSON returns the substring from the first '{' to the last '}' in the
// input. This is a pragmatic approach to handle model outputs that wrap JSON
// in text or markdown.
func extractJSON(s string) string {
	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first == -1 || last == -1 || last < first {
		return ""
	}
	return s[first : last+1]
}
