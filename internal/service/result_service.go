package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/export"
	"github.com/stemsi/exstem-results/internal/model"
	"github.com/stemsi/exstem-results/internal/repository"
	"github.com/stemsi/exstem-results/internal/scoring"
	ws "github.com/stemsi/exstem-results/internal/websocket"
)

// Band is the presentation bucket of a percentage.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BandFor maps a percentage to its band: >=70 high, >=50 medium, else low.
func BandFor(percentage int) Band {
	switch {
	case percentage >= 70:
		return BandHigh
	case percentage >= 50:
		return BandMedium
	default:
		return BandLow
	}
}

// ResultStore is the persistence ResultService needs. *repository.ResultRepository
// implements it.
type ResultStore interface {
	List(ctx context.Context, filter model.ResultFilter) ([]model.Result, error)
	ListRecent(ctx context.Context, limit int) ([]model.Result, error)
	ListByExams(ctx context.Context, examIDs []uuid.UUID) ([]model.Result, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Result, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateScore(ctx context.Context, u model.ScoreUpdate) error
	BulkUpdateScores(ctx context.Context, updates []model.ScoreUpdate) error
}

// Notifier delivers score events to stream subscribers.
type Notifier func(ctx context.Context, events ...ws.ScoreEvent) error

// ResultService reads results through the reconciliation engine and owns
// every write of a canonical score.
type ResultService struct {
	resultRepo ResultStore
	reconciler *scoring.BatchReconciler
	notify     Notifier
	log        zerolog.Logger
}

// NewResultService creates a new ResultService that publishes score events
// on rdb.
func NewResultService(
	resultRepo ResultStore,
	reconciler *scoring.BatchReconciler,
	rdb *redis.Client,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		resultRepo: resultRepo,
		reconciler: reconciler,
		notify: func(ctx context.Context, events ...ws.ScoreEvent) error {
			return ws.Publish(ctx, rdb, events...)
		},
		log: log.With().Str("component", "result_service").Logger(),
	}
}

// List returns reconciled results matching filter, newest first.
func (s *ResultService) List(ctx context.Context, filter model.ResultFilter) ([]model.ResultRow, error) {
	results, err := s.resultRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return s.reconcileRows(ctx, filterByExamType(results, filter.ExamType)), nil
}

// Recent returns the latest limit results, reconciled.
func (s *ResultService) Recent(ctx context.Context, limit int) ([]model.ResultRow, error) {
	results, err := s.resultRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	return s.reconcileRows(ctx, results), nil
}

// Export writes the filtered results as CSV and returns the row count.
func (s *ResultService) Export(ctx context.Context, filter model.ResultFilter, w io.Writer) (int, error) {
	rows, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	out := make([]export.Row, len(rows))
	for i, r := range rows {
		out[i] = toExportRow(r)
	}
	if err := export.WriteCSV(w, out); err != nil {
		return 0, err
	}
	return len(out), nil
}

// UpdateScore applies a manual edit. The edited value replaces every other
// piece of evidence on the record, the result is reconciled, and the
// canonical score is persisted and broadcast. Nothing is written when the
// exam cannot be looked up or the edit implies more correct answers than the
// exam has questions.
func (s *ResultService) UpdateScore(ctx context.Context, id uuid.UUID, req *model.UpdateScoreRequest) (*model.ResultRow, error) {
	if req.Value == nil {
		return nil, ErrInvalidScoreEdit
	}
	res, err := s.resultRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := editEvidence(res.Raw(), req.Field, *req.Value)
	if err != nil {
		return nil, err
	}
	scores, errs := s.reconciler.Join(ctx, []scoring.RawResult{raw})
	if errs[0] != nil {
		return nil, fmt.Errorf("score edit: %w", errs[0])
	}
	ns := scores[0]
	if ns.CorrectAnswers > ns.TotalQuestions {
		return nil, fmt.Errorf("%w: %d correct answers exceed %d questions",
			ErrInvalidScoreEdit, ns.CorrectAnswers, ns.TotalQuestions)
	}

	update := scoreUpdate(res.ID, ns)
	if err := s.resultRepo.UpdateScore(ctx, update); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}
	applyUpdate(res, update)

	s.log.Info().
		Str("result_id", id.String()).
		Str("field", string(req.Field)).
		Float64("value", *req.Value).
		Int("correct_answers", ns.CorrectAnswers).
		Int("percentage", ns.Percentage).
		Msg("Score edited")

	s.publish(ctx, scoreEvent(res, ns))

	row := toRow(res, ns)
	return &row, nil
}

// Delete removes a result and notifies stream subscribers.
func (s *ResultService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.resultRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, ws.ScoreEvent{Event: ws.EventResultDelete, ResultID: id.String(), At: time.Now().UTC()})
	return nil
}

// Rescore reconciles every result of the given exams and persists the scores
// that changed. It reports the exams whose results could not all be saved;
// results whose exam lookup failed are left untouched and count as failures.
func (s *ResultService) Rescore(ctx context.Context, examIDs []uuid.UUID) (updated int, failed []uuid.UUID, err error) {
	if len(examIDs) == 0 {
		return 0, nil, nil
	}
	results, err := s.resultRepo.ListByExams(ctx, examIDs)
	if err != nil {
		return 0, examIDs, fmt.Errorf("list results: %w", err)
	}

	raws := make([]scoring.RawResult, len(results))
	for i := range results {
		raws[i] = results[i].Raw()
	}
	scores, errs := s.reconciler.Join(ctx, raws)

	failedSet := make(map[uuid.UUID]struct{})
	var (
		updates []model.ScoreUpdate
		events  []ws.ScoreEvent
		owners  []*uuid.UUID
	)
	for i := range results {
		if errs[i] != nil {
			if results[i].ExamID != nil {
				failedSet[*results[i].ExamID] = struct{}{}
			}
			continue
		}
		if !scoreChanged(&results[i], scores[i]) {
			continue
		}
		updates = append(updates, scoreUpdate(results[i].ID, scores[i]))
		events = append(events, scoreEvent(&results[i], scores[i]))
		owners = append(owners, results[i].ExamID)
	}
	if len(updates) == 0 {
		return 0, setToSlice(failedSet), nil
	}

	if err := s.resultRepo.BulkUpdateScores(ctx, updates); err != nil {
		s.log.Warn().Err(err).Int("count", len(updates)).Msg("Bulk score update failed, using fallback")

		var saved []ws.ScoreEvent
		for i, u := range updates {
			err := s.resultRepo.UpdateScore(ctx, u)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				s.log.Error().Err(err).Str("result_id", u.ResultID.String()).Msg("Score update failed")
				if owners[i] != nil {
					failedSet[*owners[i]] = struct{}{}
				}
				continue
			}
			saved = append(saved, events[i])
		}
		events = saved
	}

	s.publish(ctx, events...)
	return len(events), setToSlice(failedSet), nil
}

func setToSlice(set map[uuid.UUID]struct{}) []uuid.UUID {
	var out []uuid.UUID
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (s *ResultService) reconcile(ctx context.Context, results []model.Result) []scoring.NormalizedScore {
	raws := make([]scoring.RawResult, len(results))
	for i := range results {
		raws[i] = results[i].Raw()
	}
	return s.reconciler.ReconcileBatch(ctx, raws)
}

func (s *ResultService) reconcileRows(ctx context.Context, results []model.Result) []model.ResultRow {
	scores := s.reconcile(ctx, results)
	rows := make([]model.ResultRow, len(results))
	for i := range results {
		rows[i] = toRow(&results[i], scores[i])
	}
	return rows
}

func (s *ResultService) publish(ctx context.Context, events ...ws.ScoreEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.notify(ctx, events...); err != nil {
		s.log.Warn().Err(err).Int("count", len(events)).Msg("Failed to publish score events")
	}
}

// editEvidence makes value the only evidence on raw.
func editEvidence(raw scoring.RawResult, field model.ScoreField, value float64) (scoring.RawResult, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return raw, ErrInvalidScoreEdit
	}

	raw.CorrectAnswers = nil
	raw.Score = nil
	raw.Answers = nil
	raw.EarnedPoints = nil

	switch field {
	case model.ScoreFieldCorrectAnswers:
		if value != math.Trunc(value) {
			return raw, fmt.Errorf("%w: correct answers must be a whole number", ErrInvalidScoreEdit)
		}
		if value > math.MaxInt32 {
			return raw, fmt.Errorf("%w: correct answers out of range", ErrInvalidScoreEdit)
		}
		n := int(value)
		raw.CorrectAnswers = &n
	case model.ScoreFieldScore:
		raw.Score = &value
	case model.ScoreFieldEarnedPoints:
		raw.EarnedPoints = &value
	default:
		return raw, fmt.Errorf("%w: unknown field %q", ErrInvalidScoreEdit, field)
	}
	return raw, nil
}

// filterByExamType keeps results whose stored type normalizes to want.
func filterByExamType(results []model.Result, want string) []model.Result {
	if want == "" {
		return results
	}
	target, ok := scoring.ParseExamType(want)

	kept := results[:0:0]
	for _, r := range results {
		if ok {
			if t, _ := scoring.ParseExamType(r.ExamType); t == target {
				kept = append(kept, r)
			}
		} else if strings.EqualFold(strings.TrimSpace(r.ExamType), strings.TrimSpace(want)) {
			kept = append(kept, r)
		}
	}
	return kept
}

// examTypeLabel prefers the stored layer name, then the canonical display name.
func examTypeLabel(r *model.Result) string {
	if r.LayerName != "" {
		return r.LayerName
	}
	if t, ok := scoring.ParseExamType(r.ExamType); ok {
		return t.DisplayName()
	}
	return r.ExamType
}

func scoreChanged(r *model.Result, ns scoring.NormalizedScore) bool {
	return r.CorrectAnswers == nil || *r.CorrectAnswers != ns.CorrectAnswers ||
		r.EarnedPoints == nil || *r.EarnedPoints != ns.EarnedMarks ||
		r.Percentage == nil || *r.Percentage != ns.Percentage
}

func scoreUpdate(id uuid.UUID, ns scoring.NormalizedScore) model.ScoreUpdate {
	return model.ScoreUpdate{
		ResultID:       id,
		CorrectAnswers: ns.CorrectAnswers,
		EarnedPoints:   ns.EarnedMarks,
		Percentage:     ns.Percentage,
	}
}

// applyUpdate mirrors a persisted update onto the in-memory record.
func applyUpdate(r *model.Result, u model.ScoreUpdate) {
	correct, earned, pct := u.CorrectAnswers, u.EarnedPoints, u.Percentage
	r.CorrectAnswers = &correct
	r.EarnedPoints = &earned
	r.Percentage = &pct
}

func scoreEvent(r *model.Result, ns scoring.NormalizedScore) ws.ScoreEvent {
	ev := ws.ScoreEvent{
		Event:          ws.EventScoreUpdated,
		ResultID:       r.ID.String(),
		CorrectAnswers: ns.CorrectAnswers,
		EarnedMarks:    ns.EarnedMarks,
		TotalMarks:     ns.TotalMarks,
		Percentage:     ns.Percentage,
		Band:           string(BandFor(ns.Percentage)),
		At:             time.Now().UTC(),
	}
	if r.ExamID != nil {
		ev.ExamID = r.ExamID.String()
	}
	return ev
}

func toRow(r *model.Result, ns scoring.NormalizedScore) model.ResultRow {
	return model.ResultRow{
		ID:                r.ID,
		ExamID:            r.ExamID,
		StudentID:         r.StudentID,
		StudentName:       r.StudentName,
		ClassName:         r.ClassName,
		SubjectName:       r.SubjectName,
		ExamTitle:         r.ExamTitle,
		ExamCode:          r.ExamCode,
		ExamType:          examTypeLabel(r),
		CorrectAnswers:    ns.CorrectAnswers,
		TotalQuestions:    ns.TotalQuestions,
		PointsPerQuestion: ns.PointsPerQuestion,
		EarnedMarks:       ns.EarnedMarks,
		TotalMarks:        ns.TotalMarks,
		Percentage:        ns.Percentage,
		Band:              string(BandFor(ns.Percentage)),
		Basis:             ns.Basis,
		TotalsSource:      ns.Totals,
		Status:            r.Status,
		SubmittedAt:       r.SubmittedAt,
	}
}

func toExportRow(r model.ResultRow) export.Row {
	return export.Row{
		StudentName:    r.StudentName,
		ClassName:      r.ClassName,
		SubjectName:    r.SubjectName,
		ExamType:       r.ExamType,
		ExamTitle:      r.ExamTitle,
		ExamCode:       r.ExamCode,
		EarnedMarks:    r.EarnedMarks,
		TotalMarks:     r.TotalMarks,
		Percentage:     r.Percentage,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		SubmittedAt:    r.SubmittedAt,
		Status:         r.Status,
	}
}
