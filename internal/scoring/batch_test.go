package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeLookup struct {
	mu    sync.Mutex
	calls map[string]int
	exams map[string]*ExamDefinition
	errs  map[string]error
	delay map[string]time.Duration
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		calls: make(map[string]int),
		exams: make(map[string]*ExamDefinition),
		errs:  make(map[string]error),
		delay: make(map[string]time.Duration),
	}
}

func (f *fakeLookup) GetExam(ctx context.Context, examID string) (*ExamDefinition, error) {
	f.mu.Lock()
	f.calls[examID]++
	d := f.delay[examID]
	def, err := f.exams[examID], f.errs[examID]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return def, err
}

func TestReconcileBatch_PreservesInputOrder(t *testing.T) {
	lookup := newFakeLookup()
	lookup.exams["slow"] = exam(60, 6)
	lookup.exams["fast"] = exam(10, 10)
	lookup.delay["slow"] = 50 * time.Millisecond

	results := []RawResult{
		{ExamID: "slow", CorrectAnswers: intPtr(3)},
		{ExamID: "fast", CorrectAnswers: intPtr(9)},
		{ExamID: "slow", CorrectAnswers: intPtr(6)},
		{ExamID: "fast", Score: floatPtr(5)},
	}

	out := ReconcileBatch(context.Background(), lookup, results)
	if len(out) != len(results) {
		t.Fatalf("expected %d scores, got %d", len(results), len(out))
	}

	want := []struct {
		earned float64
		marks  int
	}{{30, 60}, {9, 10}, {60, 60}, {5, 10}}
	for i, w := range want {
		if out[i].EarnedMarks != w.earned || out[i].TotalMarks != w.marks {
			t.Errorf("row %d: expected %v/%d, got %v/%d", i, w.earned, w.marks, out[i].EarnedMarks, out[i].TotalMarks)
		}
	}
}

func TestReconcileBatch_DeduplicatesLookups(t *testing.T) {
	lookup := newFakeLookup()
	lookup.exams["a"] = exam(30, 6)
	lookup.exams["b"] = exam(60, 6)

	var results []RawResult
	for i := 0; i < 20; i++ {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		results = append(results, RawResult{ExamID: id, CorrectAnswers: intPtr(i % 7)})
	}
	results = append(results, RawResult{CorrectAnswers: intPtr(1)})

	ReconcileBatch(context.Background(), lookup, results)

	if lookup.calls["a"] != 1 || lookup.calls["b"] != 1 {
		t.Fatalf("expected one lookup per exam, got %v", lookup.calls)
	}
	if _, ok := lookup.calls[""]; ok {
		t.Fatalf("results without an exam ID must not be looked up")
	}
}

func TestReconcileBatch_LookupFailureFallsBack(t *testing.T) {
	lookup := newFakeLookup()
	lookup.errs["broken"] = errors.New("connection reset")

	results := []RawResult{
		{ExamID: "broken", CorrectAnswers: intPtr(2), TotalMarks: intPtr(20), TotalQuestions: intPtr(4)},
		{ExamID: "missing", CorrectAnswers: intPtr(2), ExamType: "first-test", TotalQuestions: intPtr(5)},
		{ExamID: "missing"},
	}

	out := ReconcileBatch(context.Background(), lookup, results)

	if out[0].Totals != TotalsFromResult || out[0].EarnedMarks != 10 {
		t.Errorf("failed lookup: expected embedded totals and 10 marks, got %+v", out[0])
	}
	if out[1].Totals != TotalsFromExamType || out[1].EarnedMarks != 4 {
		t.Errorf("missing exam: expected exam type totals and 4 marks, got %+v", out[1])
	}
	if !out[2].MissingExamData() || out[2].TotalMarks != DefaultTotalMarks || out[2].TotalQuestions != DefaultTotalQuestions {
		t.Errorf("missing exam without fields: expected hard defaults, got %+v", out[2])
	}
}

func TestJoin_ReportsLookupErrors(t *testing.T) {
	lookup := newFakeLookup()
	lookup.exams["e1"] = exam(60, 6)
	lookup.errs["e2"] = errors.New("connection reset")

	b := NewBatchReconciler(lookup, BatchConfig{}, zerolog.Nop())
	results := []RawResult{
		{ExamID: "e1", EarnedPoints: floatPtr(40)},
		{ExamID: "e2", EarnedPoints: floatPtr(40)},
		{ExamID: "missing", CorrectAnswers: intPtr(2)},
		{CorrectAnswers: intPtr(2)},
	}
	out, errs := b.Join(context.Background(), results)

	if len(errs) != len(results) {
		t.Fatalf("expected %d errors, got %d", len(results), len(errs))
	}
	if errs[0] != nil || out[0].CorrectAnswers != 4 {
		t.Errorf("resolved exam: expected 4 correct and no error, got %d, %v", out[0].CorrectAnswers, errs[0])
	}
	if !errors.Is(errs[1], ErrLookupFailure) {
		t.Errorf("failed lookup: expected ErrLookupFailure, got %v", errs[1])
	}
	// 40 marks against the 30/6 defaults reads as 8 correct; the error is
	// what stops that number from being stored.
	if out[1].CorrectAnswers != 8 || out[1].Totals != TotalsDefault {
		t.Errorf("failed lookup: expected default totals fallback, got %+v", out[1])
	}
	if errs[2] != nil {
		t.Errorf("missing exam is a definite answer, got %v", errs[2])
	}
	if errs[3] != nil {
		t.Errorf("result without an exam: expected no error, got %v", errs[3])
	}
}

func TestJoin_TimeoutIsAnError(t *testing.T) {
	lookup := newFakeLookup()
	lookup.exams["slow"] = exam(60, 6)
	lookup.delay["slow"] = time.Second

	b := NewBatchReconciler(lookup, BatchConfig{LookupTimeout: 20 * time.Millisecond}, zerolog.Nop())
	_, errs := b.Join(context.Background(), []RawResult{{ExamID: "slow", CorrectAnswers: intPtr(1)}})
	if !errors.Is(errs[0], context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", errs[0])
	}
}

func TestReconcileBatch_TimeoutDegradesToFallback(t *testing.T) {
	lookup := newFakeLookup()
	lookup.exams["hung"] = exam(60, 6)
	lookup.delay["hung"] = time.Minute

	b := NewBatchReconciler(lookup, BatchConfig{LookupTimeout: 20 * time.Millisecond}, zerolog.Nop())

	start := time.Now()
	out := b.ReconcileBatch(context.Background(), []RawResult{
		{ExamID: "hung", CorrectAnswers: intPtr(3), TotalMarks: intPtr(12), TotalQuestions: intPtr(6)},
	})
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("batch blocked for %s", elapsed)
	}
	if out[0].Totals != TotalsFromResult || out[0].EarnedMarks != 6 {
		t.Fatalf("expected fallback to embedded totals, got %+v", out[0])
	}
}

func TestReconcileBatch_LookupIgnoringContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	lookup := ExamLookupFunc(func(ctx context.Context, examID string) (*ExamDefinition, error) {
		<-block
		return exam(60, 6), nil
	})
	b := NewBatchReconciler(lookup, BatchConfig{LookupTimeout: 20 * time.Millisecond}, zerolog.Nop())

	out := b.ReconcileBatch(context.Background(), []RawResult{{ExamID: "x", CorrectAnswers: intPtr(1)}})
	if out[0].TotalMarks != DefaultTotalMarks {
		t.Fatalf("expected default totals after timeout, got %+v", out[0])
	}
}

func TestReconcileBatch_PanickingLookup(t *testing.T) {
	lookup := ExamLookupFunc(func(ctx context.Context, examID string) (*ExamDefinition, error) {
		panic("boom")
	})

	out := ReconcileBatch(context.Background(), lookup, []RawResult{
		{ExamID: "x", CorrectAnswers: intPtr(2), ExamType: "main-exam"},
	})
	if out[0].Totals != TotalsFromExamType || out[0].EarnedMarks != 20 {
		t.Fatalf("expected exam type fallback, got %+v", out[0])
	}
}

func TestReconcileBatch_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	lookup := ExamLookupFunc(func(ctx context.Context, examID string) (*ExamDefinition, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return exam(30, 6), nil
	})

	var results []RawResult
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		results = append(results, RawResult{ExamID: id})
	}

	b := NewBatchReconciler(lookup, BatchConfig{Concurrency: 2}, zerolog.Nop())
	b.ReconcileBatch(context.Background(), results)

	if p := peak.Load(); p > 2 {
		t.Fatalf("expected at most 2 concurrent lookups, saw %d", p)
	}
}

func TestReconcileBatch_NilLookupAndEmptyInput(t *testing.T) {
	if out := ReconcileBatch(context.Background(), nil, nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d", len(out))
	}

	out := ReconcileBatch(context.Background(), nil, []RawResult{{ExamID: "a", CorrectAnswers: intPtr(3)}})
	if out[0].EarnedMarks != 15 {
		t.Fatalf("expected defaults 30/6 to give 15 marks, got %v", out[0].EarnedMarks)
	}
}
