package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stemsi/exstem-results/internal/export"
	"github.com/stemsi/exstem-results/internal/model"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reconciled results as a tab-separated CSV",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("class", "", "Only results for this class")
	f.String("subject", "", "Only results for this subject")
	f.String("exam-type", "", "Only results of this exam type")
	f.String("exam-id", "", "Only results of this exam")
	f.StringP("output", "o", "", "Output file path (- for stdout, default exam_results_<timestamp>.csv)")
	return cmd
}

func exportFilter(class, subject, examType, examID string) (model.ResultFilter, error) {
	filter := model.ResultFilter{
		ClassName:   strings.TrimSpace(class),
		SubjectName: strings.TrimSpace(subject),
		ExamType:    strings.TrimSpace(examType),
	}
	if examID != "" {
		id, err := uuid.Parse(examID)
		if err != nil {
			return filter, fmt.Errorf("invalid exam id %q: %w", examID, err)
		}
		filter.ExamID = &id
	}
	return filter, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)

	filter, err := exportFilter(v.GetString("class"), v.GetString("subject"), v.GetString("exam-type"), v.GetString("exam-id"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := openApp(ctx, v)
	if err != nil {
		return err
	}
	defer a.Close()

	outPath := v.GetString("output")
	if outPath == "" {
		outPath = export.Filename(time.Now())
	}

	var out io.WriteCloser = nopWriteCloser{cmd.OutOrStdout()}
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		out = f
	}

	var n int
	err = writeOutput(out, func(w io.Writer) error {
		var err error
		if n, err = a.results.Export(ctx, filter, w); err != nil {
			return fmt.Errorf("export results: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.log.Info().Int("rows", n).Str("output", outPath).Msg("Export complete")
	return nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// writeOutput runs write against a buffered w, then flushes and closes w.
// A close failure is reported when nothing failed before it.
func writeOutput(w io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(w)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
