package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-results/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examSelect = `
	SELECT e.id, e.title, e.class_id, COALESCE(c.name, ''), e.subject_id, COALESCE(s.name, ''),
	       e.exam_type, e.total_marks, e.total_questions, e.duration_minutes,
	       e.code, e.status, e.created_by, e.created_at, e.updated_at
	FROM exams e
	LEFT JOIN classes c ON c.id = e.class_id
	LEFT JOIN subjects s ON s.id = e.subject_id`

func scanExam(row pgx.Row, e *model.Exam) error {
	return row.Scan(&e.ID, &e.Title, &e.ClassID, &e.ClassName, &e.SubjectID, &e.SubjectName,
		&e.ExamType, &e.TotalMarks, &e.TotalQuestions, &e.DurationMinutes,
		&e.Code, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	if err := scanExam(r.pool.QueryRow(ctx, examSelect+` WHERE e.id = $1`, id), e); err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// List retrieves all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, examSelect+` ORDER BY e.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exams := []model.Exam{}
	for rows.Next() {
		var e model.Exam
		if err := scanExam(rows, &e); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// ListIDs returns the ID of every exam.
func (r *ExamRepository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM exams ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// Create inserts a new exam. Returns ErrDuplicate when the code is taken.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, class_id, subject_id, exam_type, total_marks, total_questions,
		                    duration_minutes, code, status, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.ClassID, e.SubjectID, e.ExamType, e.TotalMarks, e.TotalQuestions,
		e.DurationMinutes, e.Code, e.Status, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	return mapError(err)
}

// Update writes the mutable exam fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exams
		 SET title = $1, exam_type = $2, total_marks = $3, total_questions = $4,
		     duration_minutes = $5, status = $6, updated_at = NOW()
		 WHERE id = $7
		 RETURNING updated_at`,
		e.Title, e.ExamType, e.TotalMarks, e.TotalQuestions, e.DurationMinutes, e.Status, e.ID,
	).Scan(&e.UpdatedAt)
	return mapError(err)
}

// Delete removes an exam. Results keep their embedded exam fields.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return affected(r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id))
}
