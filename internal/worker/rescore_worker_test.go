package worker

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func TestAppendUnique(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	var batch []uuid.UUID
	for _, id := range []uuid.UUID{a, b, a, a, b} {
		batch = appendUnique(batch, id)
	}

	if len(batch) != 2 || batch[0] != a || batch[1] != b {
		t.Fatalf("expected [a b] in arrival order, got %v", batch)
	}
}

type fakeRescorer struct {
	calls [][]uuid.UUID
}

func (f *fakeRescorer) Rescore(ctx context.Context, examIDs []uuid.UUID) (int, []uuid.UUID, error) {
	f.calls = append(f.calls, append([]uuid.UUID(nil), examIDs...))
	return len(examIDs), nil, nil
}

func TestFlushSafe_EmptyBatchSkipsRescore(t *testing.T) {
	w := NewRescoreWorker(nil, zerolog.Nop())
	r := &fakeRescorer{}

	w.flushSafe(context.Background(), r, nil)

	if len(r.calls) != 0 {
		t.Fatalf("expected no rescore for an empty batch, got %d calls", len(r.calls))
	}
}

func TestFlushSafe_PassesWholeBatch(t *testing.T) {
	w := NewRescoreWorker(nil, zerolog.Nop())
	r := &fakeRescorer{}
	batch := []uuid.UUID{uuid.New(), uuid.New()}

	w.flushSafe(context.Background(), r, batch)

	if len(r.calls) != 1 || len(r.calls[0]) != 2 {
		t.Fatalf("expected one call with 2 exams, got %v", r.calls)
	}
}

func TestEnqueue_NoIDsIsNoop(t *testing.T) {
	w := NewRescoreWorker(nil, zerolog.Nop())
	if err := w.Enqueue(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
