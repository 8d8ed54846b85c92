package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/pkg/models"
	"github.com/voxprep/voxprep/pkg/repository"
)

func (r *SQLiteRepo) CreateFeedback(ctx context.Context, f *models.Feedback) (string, error) {
	if f == nil {
		return "", fmt.Errorf("feedback is nil")
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	scores, strengths, areas, err := marshalFeedbackLists(f)
	if err != nil {
		return "", err
	}

	_, err = r.conn.Exec(ctx, `INSERT INTO feedback (id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.InterviewID, f.UserID, f.TotalScore, scores, strengths, areas, f.FinalAssessment, f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return "", repository.ErrDuplicate
		}
		return "", err
	}

	return f.ID, nil
}

// UpdateFeedback overwrites the record in place. The row identity is the
// feedback id; interview and user references are rewritten with the rest.
func (r *SQLiteRepo) UpdateFeedback(ctx context.Context, f *models.Feedback) error {
	if f == nil || f.ID == "" {
		return fmt.Errorf("feedback id is required")
	}

	scores, strengths, areas, err := marshalFeedbackLists(f)
	if err != nil {
		return err
	}

	res, err := r.conn.Exec(ctx, `UPDATE feedback SET interview_id = ?, user_id = ?, total_score = ?, category_scores = ?, strengths = ?, areas_for_improvement = ?, final_assessment = ?, created_at = ? WHERE id = ?`,
		f.InterviewID, f.UserID, f.TotalScore, scores, strengths, areas, f.FinalAssessment, f.CreatedAt, f.ID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *SQLiteRepo) GetFeedbackByID(ctx context.Context, id string) (*models.Feedback, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at FROM feedback WHERE id = ?`, id)
	return scanFeedback(row)
}

func (r *SQLiteRepo) GetFeedbackByInterviewAndUser(ctx context.Context, interviewID, userID string) (*models.Feedback, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, interview_id, user_id, total_score, category_scores, strengths, areas_for_improvement, final_assessment, created_at FROM feedback WHERE interview_id = ? AND user_id = ?`, interviewID, userID)
	return scanFeedback(row)
}

func marshalFeedbackLists(f *models.Feedback) (scores, strengths, areas string, err error) {
	b, err := json.Marshal(f.CategoryScores)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal category scores: %w", err)
	}
	scores = string(b)

	b, err = json.Marshal(f.Strengths)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal strengths: %w", err)
	}
	strengths = string(b)

	b, err = json.Marshal(f.AreasForImprovement)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal areas for improvement: %w", err)
	}
	areas = string(b)

	return scores, strengths, areas, nil
}

func scanFeedback(row *sql.Row) (*models.Feedback, error) {
	var f models.Feedback
	var scores, strengths, areas string
	if err := row.Scan(&f.ID, &f.InterviewID, &f.UserID, &f.TotalScore, &scores, &strengths, &areas, &f.FinalAssessment, &f.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	if err := json.Unmarshal([]byte(scores), &f.CategoryScores); err != nil {
		return nil, fmt.Errorf("unmarshal category scores: %w", err)
	}
	if err := json.Unmarshal([]byte(strengths), &f.Strengths); err != nil {
		return nil, fmt.Errorf("unmarshal strengths: %w", err)
	}
	if err := json.Unmarshal([]byte(areas), &f.AreasForImprovement); err != nil {
		return nil, fmt.Errorf("unmarshal areas for improvement: %w", err)
	}

	return &f, nil
}
