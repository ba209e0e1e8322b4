package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-results/internal/worker"
)

func rescoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rescore",
		Short: "Reconcile stored scores against the current exam definitions",
		RunE:  runRescore,
	}
	f := cmd.Flags()
	f.StringSlice("exam", nil, "Exam IDs to rescore (repeatable)")
	f.Bool("all", false, "Rescore every exam")
	f.Bool("queue", false, "Hand the exams to the server's rescore worker instead of running here")
	return cmd
}

func parseExamIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid exam id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// chunk splits ids into slices of at most size.
func chunk(ids []uuid.UUID, size int) [][]uuid.UUID {
	var out [][]uuid.UUID
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func runRescore(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)

	ids, err := parseExamIDs(v.GetStringSlice("exam"))
	if err != nil {
		return err
	}
	all := v.GetBool("all")
	if all == (len(ids) > 0) {
		return errors.New("pass either --exam or --all")
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, v)
	if err != nil {
		return err
	}
	defer a.Close()

	if all {
		if ids, err = a.exams.ListIDs(ctx); err != nil {
			return fmt.Errorf("list exams: %w", err)
		}
	}

	if v.GetBool("queue") {
		if err := a.queue.Enqueue(ctx, ids...); err != nil {
			return fmt.Errorf("enqueue: %w", err)
		}
		a.log.Info().Int("exams", len(ids)).Msg("Exams queued for rescore")
		return nil
	}

	var updated int
	var failed []uuid.UUID
	for _, batch := range chunk(ids, worker.RescoreBatchSize) {
		n, f, err := a.results.Rescore(ctx, batch)
		if err != nil {
			return fmt.Errorf("rescore: %w", err)
		}
		updated += n
		failed = append(failed, f...)
	}

	a.log.Info().Int("exams", len(ids)).Int("updated", updated).Msg("Rescore complete")
	if len(failed) > 0 {
		return fmt.Errorf("%d exams had results that could not be saved", len(failed))
	}
	return nil
}
