package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLookupConcurrency = 8
	DefaultLookupTimeout     = 3 * time.Second
)

// ExamLookup fetches exam metadata by ID. A nil definition with a nil error
// means the exam does not exist.
type ExamLookup interface {
	GetExam(ctx context.Context, examID string) (*ExamDefinition, error)
}

// ExamLookupFunc adapts a function to ExamLookup.
type ExamLookupFunc func(ctx context.Context, examID string) (*ExamDefinition, error)

// GetExam calls f.
func (f ExamLookupFunc) GetExam(ctx context.Context, examID string) (*ExamDefinition, error) {
	return f(ctx, examID)
}

// BatchConfig tunes the exam join.
type BatchConfig struct {
	Concurrency   int
	LookupTimeout time.Duration
}

// BatchReconciler joins results with their exams and reconciles them.
type BatchReconciler struct {
	lookup      ExamLookup
	concurrency int
	timeout     time.Duration
	log         zerolog.Logger
}

// NewBatchReconciler creates a BatchReconciler. Non-positive config values
// fall back to the package defaults.
func NewBatchReconciler(lookup ExamLookup, cfg BatchConfig, log zerolog.Logger) *BatchReconciler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultLookupConcurrency
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}
	return &BatchReconciler{
		lookup:      lookup,
		concurrency: cfg.Concurrency,
		timeout:     cfg.LookupTimeout,
		log:         log.With().Str("component", "batch_reconciler").Logger(),
	}
}

// ReconcileBatch reconciles results with default settings and no logging.
func ReconcileBatch(ctx context.Context, lookup ExamLookup, results []RawResult) []NormalizedScore {
	return NewBatchReconciler(lookup, BatchConfig{}, zerolog.Nop()).ReconcileBatch(ctx, results)
}

// ReconcileBatch looks up each distinct exam once, in parallel, then scores
// every result. out[i] always belongs to results[i]. Lookup failures fall
// back to the fields embedded in the result.
func (b *BatchReconciler) ReconcileBatch(ctx context.Context, results []RawResult) []NormalizedScore {
	out, _ := b.Join(ctx, results)
	return out
}

// Join is ReconcileBatch that also reports, per result, the lookup error
// that forced a fallback. errs[i] is nil when results[i] was scored against
// its exam, has no exam ID, or its exam does not exist. A fallback score with
// a non-nil error is fit for display only; persisting it would overwrite the
// stored evidence with numbers derived from the wrong totals.
func (b *BatchReconciler) Join(ctx context.Context, results []RawResult) ([]NormalizedScore, []error) {
	index := make(map[string]int)
	var ids []string
	for _, r := range results {
		if r.ExamID == "" {
			continue
		}
		if _, ok := index[r.ExamID]; !ok {
			index[r.ExamID] = len(ids)
			ids = append(ids, r.ExamID)
		}
	}

	exams := make([]*ExamDefinition, len(ids))
	lookupErrs := make([]error, len(ids))
	if b.lookup != nil && len(ids) > 0 {
		var g errgroup.Group
		g.SetLimit(b.concurrency)
		for i, id := range ids {
			g.Go(func() error {
				exam, err := b.fetch(ctx, id)
				if err != nil {
					b.log.Warn().Err(err).Str("exam_id", id).Msg("Falling back to embedded exam fields")
					if !errors.Is(err, ErrExamNotFound) {
						lookupErrs[i] = err
					}
					return nil
				}
				exams[i] = exam
				return nil
			})
		}
		_ = g.Wait()
	}

	out := make([]NormalizedScore, len(results))
	errs := make([]error, len(results))
	for i, r := range results {
		var exam *ExamDefinition
		if j, ok := index[r.ExamID]; ok {
			exam, errs[i] = exams[j], lookupErrs[j]
		}
		out[i] = Reconcile(exam, r)
		if out[i].MissingExamData() {
			b.log.Debug().Err(ErrMissingExamData).Str("exam_id", r.ExamID).Msg("Scored with default totals")
		}
	}
	return out, errs
}

type lookupReply struct {
	exam *ExamDefinition
	err  error
}

// fetch runs one lookup under the per-lookup timeout. The lookup runs in its
// own goroutine so an implementation that ignores ctx cannot stall the batch.
func (b *BatchReconciler) fetch(ctx context.Context, id string) (*ExamDefinition, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	replies := make(chan lookupReply, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				replies <- lookupReply{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		exam, err := b.lookup.GetExam(lookupCtx, id)
		replies <- lookupReply{exam: exam, err: err}
	}()

	select {
	case r := <-replies:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLookupFailure, r.err)
		}
		if r.exam == nil {
			return nil, fmt.Errorf("%w: %w", ErrLookupFailure, ErrExamNotFound)
		}
		return r.exam, nil
	case <-lookupCtx.Done():
		return nil, fmt.Errorf("%w: %w", ErrLookupFailure, lookupCtx.Err())
	}
}
