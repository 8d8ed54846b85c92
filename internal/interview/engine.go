package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/voxprep/voxprep/internal/llm"
	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

// ErrGenerationParse is returned when the model output cannot be parsed as
// the expected JSON array of questions.
var ErrGenerationParse = errors.New("generation output is not a parseable question list")

var typeLabels = map[string]string{
	"technical":  "Technical",
	"behavioral": "Behavioral",
	"mixed":      "Mixed",
}

var levelLabels = map[string]string{
	"junior":    "Junior",
	"mid":       "Mid",
	"senior":    "Senior",
	"lead":      "Lead",
	"principal": "Principal",
}

// NormalizeType maps a case-insensitive interview type to its canonical
// label. Values outside the lookup pass through unchanged.
func NormalizeType(v string) string {
	if canonical, ok := typeLabels[strings.ToLower(strings.TrimSpace(v))]; ok {
		return canonical
	}
	return v
}

// NormalizeLevel maps a case-insensitive experience level to its canonical
// label. Values outside the lookup pass through unchanged.
func NormalizeLevel(v string) string {
	if canonical, ok := levelLabels[strings.ToLower(strings.TrimSpace(v))]; ok {
		return canonical
	}
	return v
}

// SplitTechStack normalizes a comma-separated tech stack into a slice,
// trimming entries and dropping empties.
func SplitTechStack(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// coverImages is the fixed set an interview cover is drawn from at creation.
var coverImages = []string{
	"/covers/adobe.png",
	"/covers/amazon.png",
	"/covers/facebook.png",
	"/covers/hostinger.png",
	"/covers/pinterest.png",
	"/covers/quora.png",
	"/covers/reddit.png",
	"/covers/skype.png",
	"/covers/spotify.png",
	"/covers/telegram.png",
	"/covers/tiktok.png",
	"/covers/yahoo.png",
}

func randomCover() string {
	return coverImages[rand.Intn(len(coverImages))]
}

// GenerateInput holds validated parameters for question generation. TechStack
// is already normalized to a slice by the caller.
type GenerateInput struct {
	Role      string
	Type      string
	Level     string
	TechStack []string
	Amount    int
	UserID    string
}

// Engine runs the question generation pipeline: prompt the model for a list
// of interview questions, parse them, and persist a new interview record.
type Engine struct {
	provider llm.Provider
	repo     repository.InterviewRepo
	logger   *slog.Logger
}

func NewEngine(provider llm.Provider, repo repository.InterviewRepo, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, repo: repo, logger: logger}
}

// Generate produces the questions via the external model and persists a new
// interview. It returns the new interview's id.
func (e *Engine) Generate(ctx context.Context, in GenerateInput) (string, error) {
	prompt := buildPrompt(in)

	start := time.Now()
	raw, err := e.provider.GenerateText(ctx, prompt, "")
	if err != nil {
		return "", fmt.Errorf("generate questions: %w", err)
	}
	e.logger.Info("question generation complete",
		slog.String("provider", e.provider.GetProviderName()),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	questions, err := ParseQuestions(raw)
	if err != nil {
		e.logger.Error("question parse failed", slog.Any("err", err), slog.String("raw", raw))
		return "", err
	}

	interview := &models.Interview{
		Role:       in.Role,
		Type:       NormalizeType(in.Type),
		Level:      NormalizeLevel(in.Level),
		TechStack:  in.TechStack,
		Questions:  questions,
		UserID:     in.UserID,
		Finalized:  true,
		CoverImage: randomCover(),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	id, err := e.repo.CreateInterview(ctx, interview)
	if err != nil {
		return "", fmt.Errorf("persist interview: %w", err)
	}

	return id, nil
}

func buildPrompt(in GenerateInput) string {
	return fmt.Sprintf(`Prepare questions for a job interview.
The job role is %s.
The job experience level is %s.
The tech stack used in the job is: %s.
The focus between behavioural and technical questions should lean towards: %s.
The amount of questions required is: %d.
Please return only the questions, without any additional text.
The questions are going to be read by a voice assistant so do not use "/" or "*" or any other special characters which might break the voice assistant.
Return the questions formatted like this:
["Question 1", "Question 2", "Question 3"]

Thank you! <3`,
		in.Role,
		NormalizeLevel(in.Level),
		strings.Join(in.TechStack, ", "),
		NormalizeType(in.Type),
		in.Amount,
	)
}

// ParseQuestions extracts a JSON array of strings from arbitrary model
// output. The model is not guaranteed to emit bare JSON, so any Markdown
// code fence is stripped and the substring between the first '[' and the
// last ']' is used. A failure here is ErrGenerationParse.
func ParseQuestions(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "[")
	last := strings.LastIndex(cleaned, "]")
	if first >= 0 && last > first {
		cleaned = cleaned[first : last+1]
	}

	var questions []string
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationParse, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty question list", ErrGenerationParse)
	}

	return questions, nil
}
