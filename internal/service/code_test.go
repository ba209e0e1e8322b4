package service

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stemsi/exstem-results/internal/repository"
)

func TestGenerateCode(t *testing.T) {
	re := regexp.MustCompile(`^EXM[A-Z0-9]{4}$`)
	for range 100 {
		if code := GenerateCode(ExamCodePrefix); !re.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
	}
}

func TestCodeFrom(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"low values map directly", []byte{0, 1, 25, 26}, "EXMABZ0"},
		{"last symbol", []byte{35, 35, 35, 35}, "EXM9999"},
		// 0xFF masks to 63, which is out of range and redrawn rather than
		// folded onto the first letters by a modulo.
		{"out of range bytes are redrawn", []byte{0xFF, 5, 0xFF, 5, 0xFF, 5, 0xFF, 5}, "EXMFFFF"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := codeFrom(bytes.NewReader(tc.input), ExamCodePrefix)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}

	if _, err := codeFrom(bytes.NewReader([]byte{1, 2}), ExamCodePrefix); err == nil {
		t.Fatalf("expected an error from a short random source")
	}
}

func TestInsertWithCodeRetriesCollisions(t *testing.T) {
	var seen []string
	err := insertWithCode(context.Background(), ClassCodePrefix, func(code string) error {
		seen = append(seen, code)
		if len(seen) < 3 {
			return repository.ErrDuplicate
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(seen))
	}
}

func TestInsertWithCodeGivesUp(t *testing.T) {
	calls := 0
	err := insertWithCode(context.Background(), ClassCodePrefix, func(string) error {
		calls++
		return repository.ErrDuplicate
	})
	if !errors.Is(err, ErrCodeExhausted) || calls != codeAttempts {
		t.Fatalf("expected ErrCodeExhausted after %d calls, got %v after %d", codeAttempts, err, calls)
	}
}

func TestInsertWithCodePassesOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := insertWithCode(context.Background(), ClassCodePrefix, func(string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Fatalf("expected boom after one call, got %v after %d", err, calls)
	}
}
