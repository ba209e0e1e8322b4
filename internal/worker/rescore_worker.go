package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-results/internal/config"
)

const (
	RescoreBatchSize    = 50
	RescoreBatchTimeout = 2 * time.Second
	RescorePollTimeout  = 1 * time.Second
)

// Rescorer reconciles every result of the given exams again and reports the
// exams whose results could not be saved.
type Rescorer interface {
	Rescore(ctx context.Context, examIDs []uuid.UUID) (int, []uuid.UUID, error)
}

// RescoreWorker drains the rescore queue. Exams land on the queue when their
// totals or type change, so stored scores catch up with the new definition.
type RescoreWorker struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRescoreWorker(rdb *redis.Client, log zerolog.Logger) *RescoreWorker {
	return &RescoreWorker{
		rdb: rdb,
		log: log.With().Str("component", "rescore_worker").Logger(),
	}
}

// Enqueue pushes exam IDs onto the rescore queue.
func (w *RescoreWorker) Enqueue(ctx context.Context, examIDs ...uuid.UUID) error {
	if len(examIDs) == 0 {
		return nil
	}
	vals := make([]any, len(examIDs))
	for i, id := range examIDs {
		vals[i] = id.String()
	}
	return w.rdb.RPush(ctx, config.WorkerKey.RescoreExamsQueue, vals...).Err()
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *RescoreWorker) Start(ctx context.Context, rescorer Rescorer) {
	w.log.Info().Msg("RescoreWorker started")

	batch := make([]uuid.UUID, 0, RescoreBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= RescoreBatchSize || time.Since(lastFlush) >= RescoreBatchTimeout) {

			w.flushSafe(ctx, rescorer, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), rescorer, batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, RescorePollTimeout, config.WorkerKey.RescoreExamsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			id, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid exam ID on rescore queue")
				continue
			}

			batch = appendUnique(batch, id)
		}
	}
}

// appendUnique adds id unless the batch already holds it. A burst of edits
// to one exam collapses into a single rescore.
func appendUnique(batch []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range batch {
		if existing == id {
			return batch
		}
	}
	return append(batch, id)
}

// ----------------------------------------------------------------
// Rescore wrapper
// ----------------------------------------------------------------

func (w *RescoreWorker) flushSafe(ctx context.Context, rescorer Rescorer, batch []uuid.UUID) {
	if len(batch) == 0 {
		return
	}

	updated, failed, err := rescorer.Rescore(ctx, batch)
	if err != nil {
		w.log.Error().Err(err).Int("exams", len(batch)).Msg("Rescore failed, requeueing batch")
		w.requeue(batch)
		return
	}
	if len(failed) > 0 {
		w.log.Warn().Int("exams", len(failed)).Msg("Some results were not saved, requeueing their exams")
		w.requeue(failed)
	}

	w.log.Info().Int("exams", len(batch)).Int("updated", updated).Msg("Rescore batch done")
}

// requeue uses a fresh context so a shutdown flush can still hand work back.
func (w *RescoreWorker) requeue(ids []uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.Enqueue(ctx, ids...); err != nil {
		w.log.Error().Err(err).Int("exams", len(ids)).Msg("Requeue failed")
	}
}
