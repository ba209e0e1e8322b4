package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/scoring"
)

// ResultRepository handles exam result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultSelect = `
	SELECT id, exam_id, student_id, student_name, class_name, subject_name,
	       exam_title, exam_code, exam_type, layer_name,
	       correct_answers, score, answers, earned_points, percentage,
	       total_marks, total_questions, total_points,
	       status, submitted_at, updated_at
	FROM results`

func scanResult(row pgx.Row, r *model.Result) error {
	var answers []byte
	err := row.Scan(&r.ID, &r.ExamID, &r.StudentID, &r.StudentName, &r.ClassName, &r.SubjectName,
		&r.ExamTitle, &r.ExamCode, &r.ExamType, &r.LayerName,
		&r.CorrectAnswers, &r.Score, &answers, &r.EarnedPoints, &r.Percentage,
		&r.TotalMarks, &r.TotalQuestions, &r.TotalPoints,
		&r.Status, &r.SubmittedAt, &r.UpdatedAt)
	if err != nil {
		return err
	}
	r.Answers = decodeAnswers(answers)
	return nil
}

// decodeAnswers parses the stored answers list. Malformed JSON counts as absent.
func decodeAnswers(raw []byte) []scoring.Answer {
	if len(raw) == 0 {
		return nil
	}
	var answers []scoring.Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil
	}
	return answers
}

func collectResults(rows pgx.Rows) ([]model.Result, error) {
	defer rows.Close()

	results := []model.Result{}
	for rows.Next() {
		var r model.Result
		if err := scanResult(rows, &r); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// List retrieves results matching the filter, newest first. Class and subject
// names match case-insensitively. Exam type is left to the caller since the
// stored text may be any alias.
func (r *ResultRepository) List(ctx context.Context, filter model.ResultFilter) ([]model.Result, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ClassName != "" {
		args = append(args, filter.ClassName)
		conds = append(conds, fmt.Sprintf("LOWER(class_name) = LOWER($%d)", len(args)))
	}
	if filter.SubjectName != "" {
		args = append(args, filter.SubjectName)
		conds = append(conds, fmt.Sprintf("LOWER(subject_name) = LOWER($%d)", len(args)))
	}
	if filter.ExamID != nil {
		args = append(args, *filter.ExamID)
		conds = append(conds, fmt.Sprintf("exam_id = $%d", len(args)))
	}

	query := resultSelect
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY submitted_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectResults(rows)
}

// ListRecent returns the latest limit results.
func (r *ResultRepository) ListRecent(ctx context.Context, limit int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx, resultSelect+` ORDER BY submitted_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectResults(rows)
}

// ListByExams returns every result attached to one of the given exams.
func (r *ResultRepository) ListByExams(ctx context.Context, examIDs []uuid.UUID) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx, resultSelect+` WHERE exam_id = ANY($1::uuid[])`, examIDs)
	if err != nil {
		return nil, err
	}
	return collectResults(rows)
}

// GetByID retrieves a result by its UUID.
func (r *ResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	res := &model.Result{}
	if err := scanResult(r.pool.QueryRow(ctx, resultSelect+` WHERE id = $1`, id), res); err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// Delete removes a result.
func (r *ResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM results WHERE id = $1`, id))
}

// UpdateScore persists the canonical score of one result.
func (r *ResultRepository) UpdateScore(ctx context.Context, u model.ScoreUpdate) error {
	return affected(r.pool.Exec(ctx,
		`UPDATE results
		 SET correct_answers = $1, earned_points = $2, percentage = $3, updated_at = NOW()
		 WHERE id = $4`,
		u.CorrectAnswers, u.EarnedPoints, u.Percentage, u.ResultID,
	))
}

// BulkUpdateScores persists many canonical scores in one statement.
func (r *ResultRepository) BulkUpdateScores(ctx context.Context, updates []model.ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	n := len(updates)
	ids := make([]uuid.UUID, 0, n)
	counts := make([]int32, 0, n)
	earned := make([]float64, 0, n)
	pcts := make([]int32, 0, n)
	for _, u := range updates {
		ids = append(ids, u.ResultID)
		counts = append(counts, int32(u.CorrectAnswers))
		earned = append(earned, u.EarnedPoints)
		pcts = append(pcts, int32(u.Percentage))
	}

	query := `
		UPDATE results AS r
		SET correct_answers = t.correct_answers,
		    earned_points = t.earned_points,
		    percentage = t.percentage,
		    updated_at = NOW()
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::float8[],
			$4::int[]
		) AS t (id, correct_answers, earned_points, percentage)
		WHERE r.id = t.id
	`

	_, err := r.pool.Exec(ctx, query, ids, counts, earned, pcts)
	return err
}
