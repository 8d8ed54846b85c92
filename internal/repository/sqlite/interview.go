package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/pkg/models"
)

func (r *SQLiteRepo) CreateInterview(ctx context.Context, in *models.Interview) (string, error) {
	if in == nil {
		return "", fmt.Errorf("interview is nil")
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}

	techstack, err := json.Marshal(in.TechStack)
	if err != nil {
		return "", fmt.Errorf("marshal techstack: %w", err)
	}
	questions, err := json.Marshal(in.Questions)
	if err != nil {
		return "", fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.conn.Exec(ctx, `INSERT INTO interviews (id, role, type, level, techstack, questions, user_id, finalized, cover_image, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.Role, in.Type, in.Level, string(techstack), string(questions), in.UserID, boolToInt(in.Finalized), in.CoverImage, in.CreatedAt)
	if err != nil {
		return "", err
	}

	return in.ID, nil
}

func (r *SQLiteRepo) GetInterviewByID(ctx context.Context, id string) (*models.Interview, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, role, type, level, techstack, questions, user_id, finalized, cover_image, created_at FROM interviews WHERE id = ?`, id)

	in, err := scanInterview(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return in, nil
}

func (r *SQLiteRepo) ListInterviewsByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, role, type, level, techstack, questions, user_id, finalized, cover_image, created_at FROM interviews WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInterviews(rows)
}

func (r *SQLiteRepo) ListLatestInterviews(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, role, type, level, techstack, questions, user_id, finalized, cover_image, created_at FROM interviews WHERE finalized = 1 AND user_id != ? ORDER BY created_at DESC LIMIT ?`, excludeUserID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectInterviews(rows)
}

func collectInterviews(rows *sql.Rows) ([]models.Interview, error) {
	var out []models.Interview
	for rows.Next() {
		in, err := scanInterview(rows.Scan)
		if err != nil {
			return nil, err
		}

		out = append(out, *in)
	}

	return out, rows.Err()
}

func scanInterview(scan func(dest ...any) error) (*models.Interview, error) {
	var in models.Interview
	var techstack, questions string
	var finalized int
	var cover sql.NullString
	if err := scan(&in.ID, &in.Role, &in.Type, &in.Level, &techstack, &questions, &in.UserID, &finalized, &cover, &in.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(techstack), &in.TechStack); err != nil {
		return nil, fmt.Errorf("unmarshal techstack: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &in.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	in.Finalized = finalized != 0
	if cover.Valid {
		in.CoverImage = cover.String
	}

	return &in, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
