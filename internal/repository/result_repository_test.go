package repository

import "testing"

func TestDecodeAnswers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
		correct int
	}{
		{"absent", "", true, 0},
		{"json null", "null", true, 0},
		{"malformed", `{"isCorrect":`, true, 0},
		{"wrong shape", `{"isCorrect":true}`, true, 0},
		{"empty list", `[]`, false, 0},
		{"mixed", `[{"isCorrect":true},{"isCorrect":false},{"isCorrect":true,"answer":"B"}]`, false, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeAnswers([]byte(tc.raw))
			if (got == nil) != tc.wantNil {
				t.Fatalf("expected nil=%v, got %v", tc.wantNil, got)
			}
			correct := 0
			for _, a := range got {
				if a.IsCorrect {
					correct++
				}
			}
			if correct != tc.correct {
				t.Fatalf("expected %d correct answers, got %d", tc.correct, correct)
			}
		})
	}
}
