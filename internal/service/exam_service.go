package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/config"
	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/repository"
	"github.com/stemsi/exstem-results/internal/scoring"
)

// RescoreQueue accepts exams whose results must be reconciled again.
type RescoreQueue interface {
	Enqueue(ctx context.Context, examIDs ...uuid.UUID) error
}

// ExamService handles exam business logic and the Redis definition cache.
// It is the scoring.ExamLookup used by every reconciliation.
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	rescore  RescoreQueue
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	rdb *redis.Client,
	rescore RescoreQueue,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		rescore:  rescore,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

var _ scoring.ExamLookup = (*ExamService)(nil)

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves all exams.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.List(ctx)
}

// ListIDs returns every exam ID.
func (s *ExamService) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.examRepo.ListIDs(ctx)
}

// Create validates and inserts a new ACTIVE exam with a generated EXM code.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest, createdBy string) (*model.Exam, error) {
	examType, ok := scoring.ParseExamType(req.ExamType)
	if !ok {
		return nil, ErrInvalidExamType
	}
	if err := validateTotals(examType, req.TotalMarks); err != nil {
		return nil, err
	}
	classID, err := uuid.Parse(req.ClassID)
	if err != nil {
		return nil, ErrReferenceNotFound
	}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, ErrReferenceNotFound
	}

	exam := &model.Exam{
		Title:           req.Title,
		ClassID:         &classID,
		SubjectID:       &subjectID,
		ExamType:        examType,
		TotalMarks:      req.TotalMarks,
		TotalQuestions:  req.TotalQuestions,
		DurationMinutes: req.DurationMinutes,
		Status:          model.ExamStatusActive,
		CreatedBy:       createdBy,
	}

	err = insertWithCode(ctx, ExamCodePrefix, func(code string) error {
		exam.Code = code
		return s.examRepo.Create(ctx, exam)
	})
	if errors.Is(err, repository.ErrInUse) {
		return nil, ErrReferenceNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("exam_id", exam.ID.String()).Str("code", exam.Code).Msg("Exam created")
	return s.examRepo.GetByID(ctx, exam.ID)
}

// Update applies a partial update. When the scoring totals change the
// cached definition is dropped and the exam's results are queued for rescoring.
func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req *model.UpdateExamRequest) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *exam.Definition()

	if err := applyExamUpdate(exam, req); err != nil {
		return nil, err
	}
	if err := s.examRepo.Update(ctx, exam); err != nil {
		return nil, err
	}

	if *exam.Definition() != before {
		s.invalidate(ctx, id)
		if err := s.rescore.Enqueue(ctx, id); err != nil {
			s.log.Error().Err(err).Str("exam_id", id.String()).Msg("Failed to queue rescore")
		}
	}
	return exam, nil
}

// Delete removes an exam and its cached definition. Results stay and fall
// back to their embedded exam fields.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// GetExam implements scoring.ExamLookup, reading through the Redis cache.
// Unknown or malformed IDs report scoring.ErrExamNotFound.
func (s *ExamService) GetExam(ctx context.Context, examID string) (*scoring.ExamDefinition, error) {
	id, err := uuid.Parse(examID)
	if err != nil {
		return nil, scoring.ErrExamNotFound
	}
	key := config.CacheKey.ExamDefinitionKey(id.String())

	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var def scoring.ExamDefinition
		if err := json.Unmarshal(raw, &def); err == nil {
			return &def, nil
		}
		s.log.Warn().Str("exam_id", examID).Msg("Dropping malformed cached exam definition")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("Exam cache read failed")
	}

	exam, err := s.examRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, scoring.ErrExamNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exam: %w", err)
	}

	def := exam.Definition()
	if raw, err := json.Marshal(def); err == nil {
		if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Str("exam_id", examID).Msg("Exam cache write failed")
		}
	}
	return def, nil
}

func (s *ExamService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.rdb.Del(ctx, config.CacheKey.ExamDefinitionKey(id.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", id.String()).Msg("Exam cache invalidation failed")
	}
}

// validateTotals caps total marks at the exam type's maximum.
func validateTotals(examType scoring.ExamType, totalMarks int) error {
	limit, ok := examType.MaxMarks()
	if !ok {
		return ErrInvalidExamType
	}
	if totalMarks > limit {
		return fmt.Errorf("%w: %s allows at most %d", ErrMarksAboveMax, examType, limit)
	}
	return nil
}

// applyExamUpdate merges req into exam and revalidates the totals.
func applyExamUpdate(exam *model.Exam, req *model.UpdateExamRequest) error {
	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.ExamType != "" {
		examType, ok := scoring.ParseExamType(req.ExamType)
		if !ok {
			return ErrInvalidExamType
		}
		exam.ExamType = examType
	}
	if req.TotalMarks != nil {
		exam.TotalMarks = *req.TotalMarks
	}
	if req.TotalQuestions != nil {
		exam.TotalQuestions = *req.TotalQuestions
	}
	if req.DurationMinutes != nil {
		exam.DurationMinutes = *req.DurationMinutes
	}
	if req.Status != "" {
		exam.Status = req.Status
	}
	return validateTotals(exam.ExamType, exam.TotalMarks)
}
