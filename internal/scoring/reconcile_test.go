package scoring

import (
	"math"
	"testing"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func exam(marks, questions int) *ExamDefinition {
	return &ExamDefinition{TotalMarks: marks, TotalQuestions: questions}
}

func TestReconcile_Examples(t *testing.T) {
	tests := []struct {
		name      string
		exam      *ExamDefinition
		result    RawResult
		correct   int
		earned    float64
		pct       int
		marks     int
		questions int
		basis     Basis
		totals    TotalsSource
	}{
		{
			name:    "count of four on a sixty mark paper",
			exam:    exam(60, 6),
			result:  RawResult{CorrectAnswers: intPtr(4)},
			correct: 4, earned: 40, pct: 67, marks: 60, questions: 6,
			basis: BasisCorrectAnswers, totals: TotalsFromExam,
		},
		{
			name:    "score below question count is a count",
			exam:    exam(10, 10),
			result:  RawResult{Score: floatPtr(8)},
			correct: 8, earned: 8, pct: 80, marks: 10, questions: 10,
			basis: BasisScoreCount, totals: TotalsFromExam,
		},
		{
			name:    "score equal to question count is a count",
			exam:    exam(10, 10),
			result:  RawResult{Score: floatPtr(10)},
			correct: 10, earned: 10, pct: 100, marks: 10, questions: 10,
			basis: BasisScoreCount, totals: TotalsFromExam,
		},
		{
			name:    "score between question count and 100 is a percentage",
			exam:    exam(60, 10),
			result:  RawResult{Score: floatPtr(45)},
			correct: 5, earned: 30, pct: 50, marks: 60, questions: 10,
			basis: BasisScorePercentage, totals: TotalsFromExam,
		},
		{
			name:    "score above 100 is marks",
			exam:    exam(200, 10),
			result:  RawResult{Score: floatPtr(140)},
			correct: 7, earned: 140, pct: 70, marks: 200, questions: 10,
			basis: BasisScoreMarks, totals: TotalsFromExam,
		},
		{
			name: "answers list is tallied",
			exam: exam(30, 6),
			result: RawResult{Answers: []Answer{
				{IsCorrect: true}, {IsCorrect: false}, {IsCorrect: true}, {IsCorrect: true},
			}},
			correct: 3, earned: 15, pct: 50, marks: 30, questions: 6,
			basis: BasisAnswers, totals: TotalsFromExam,
		},
		{
			name:    "empty answers list counts as zero",
			exam:    exam(30, 6),
			result:  RawResult{Answers: []Answer{}, EarnedPoints: floatPtr(30)},
			correct: 0, earned: 0, pct: 0, marks: 30, questions: 6,
			basis: BasisAnswers, totals: TotalsFromExam,
		},
		{
			name:    "earned points are converted back to a count",
			exam:    exam(30, 6),
			result:  RawResult{EarnedPoints: floatPtr(22)},
			correct: 4, earned: 20, pct: 67, marks: 30, questions: 6,
			basis: BasisEarnedPoints, totals: TotalsFromExam,
		},
		{
			name:    "no exam and no fields uses hard defaults",
			exam:    nil,
			result:  RawResult{},
			correct: 0, earned: 0, pct: 0, marks: 30, questions: 6,
			basis: BasisNone, totals: TotalsDefault,
		},
		{
			name:    "corrupted count is clamped to total marks",
			exam:    exam(60, 6),
			result:  RawResult{CorrectAnswers: intPtr(11)},
			correct: 11, earned: 60, pct: 100, marks: 60, questions: 6,
			basis: BasisCorrectAnswers, totals: TotalsFromExam,
		},
		{
			name:    "negative count is clamped to zero",
			exam:    exam(60, 6),
			result:  RawResult{CorrectAnswers: intPtr(-2)},
			correct: -2, earned: 0, pct: 0, marks: 60, questions: 6,
			basis: BasisCorrectAnswers, totals: TotalsFromExam,
		},
		{
			name:    "huge score saturates the count",
			exam:    exam(60, 6),
			result:  RawResult{Score: floatPtr(1e300)},
			correct: math.MaxInt32, earned: 60, pct: 100, marks: 60, questions: 6,
			basis: BasisScoreMarks, totals: TotalsFromExam,
		},
		{
			name:    "earned points beyond int range saturate the count",
			exam:    exam(60, 6),
			result:  RawResult{EarnedPoints: floatPtr(1e19)},
			correct: math.MaxInt32, earned: 60, pct: 100, marks: 60, questions: 6,
			basis: BasisEarnedPoints, totals: TotalsFromExam,
		},
		{
			name:    "huge negative score saturates low",
			exam:    exam(60, 6),
			result:  RawResult{Score: floatPtr(-1e300)},
			correct: math.MinInt32, earned: 0, pct: 0, marks: 60, questions: 6,
			basis: BasisScoreCount, totals: TotalsFromExam,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.exam, tc.result)
			if got.CorrectAnswers != tc.correct {
				t.Errorf("correct answers: expected %d, got %d", tc.correct, got.CorrectAnswers)
			}
			if math.Abs(got.EarnedMarks-tc.earned) > 1e-9 {
				t.Errorf("earned marks: expected %v, got %v", tc.earned, got.EarnedMarks)
			}
			if got.Percentage != tc.pct {
				t.Errorf("percentage: expected %d, got %d", tc.pct, got.Percentage)
			}
			if got.TotalMarks != tc.marks || got.TotalQuestions != tc.questions {
				t.Errorf("totals: expected %d/%d, got %d/%d", tc.marks, tc.questions, got.TotalMarks, got.TotalQuestions)
			}
			if got.Basis != tc.basis {
				t.Errorf("basis: expected %s, got %s", tc.basis, got.Basis)
			}
			if got.Totals != tc.totals {
				t.Errorf("totals source: expected %s, got %s", tc.totals, got.Totals)
			}
		})
	}
}

func TestReconcile_EvidencePriority(t *testing.T) {
	r := RawResult{
		CorrectAnswers: intPtr(2),
		Score:          floatPtr(5),
		Answers:        []Answer{{IsCorrect: true}, {IsCorrect: true}, {IsCorrect: true}},
		EarnedPoints:   floatPtr(60),
	}
	if got := Reconcile(exam(60, 6), r); got.CorrectAnswers != 2 || got.Basis != BasisCorrectAnswers {
		t.Fatalf("expected correct_answers to win, got %d via %s", got.CorrectAnswers, got.Basis)
	}

	r.CorrectAnswers = nil
	if got := Reconcile(exam(60, 6), r); got.CorrectAnswers != 5 || got.Basis != BasisScoreCount {
		t.Fatalf("expected score to win, got %d via %s", got.CorrectAnswers, got.Basis)
	}

	r.Score = nil
	if got := Reconcile(exam(60, 6), r); got.CorrectAnswers != 3 || got.Basis != BasisAnswers {
		t.Fatalf("expected answers to win, got %d via %s", got.CorrectAnswers, got.Basis)
	}

	r.Answers = nil
	if got := Reconcile(exam(60, 6), r); got.CorrectAnswers != 6 || got.Basis != BasisEarnedPoints {
		t.Fatalf("expected earned points to win, got %d via %s", got.CorrectAnswers, got.Basis)
	}
}

func TestReconcile_NonFiniteScoreFallsThrough(t *testing.T) {
	r := RawResult{Score: floatPtr(math.NaN()), EarnedPoints: floatPtr(20)}
	got := Reconcile(exam(60, 6), r)
	if got.Basis != BasisEarnedPoints || got.CorrectAnswers != 2 {
		t.Fatalf("expected NaN score to be skipped, got %d via %s", got.CorrectAnswers, got.Basis)
	}

	r = RawResult{EarnedPoints: floatPtr(math.Inf(1))}
	got = Reconcile(exam(60, 6), r)
	if got.Basis != BasisNone || got.EarnedMarks != 0 {
		t.Fatalf("expected infinite earned points to be ignored, got %v via %s", got.EarnedMarks, got.Basis)
	}
}

func TestReconcile_TotalsResolution(t *testing.T) {
	tests := []struct {
		name      string
		exam      *ExamDefinition
		result    RawResult
		marks     int
		questions int
		totals    TotalsSource
	}{
		{
			name:   "exam values win over embedded ones",
			exam:   exam(60, 12),
			result: RawResult{TotalMarks: intPtr(10), TotalQuestions: intPtr(5)},
			marks:  60, questions: 12, totals: TotalsFromExam,
		},
		{
			name:   "partial exam is completed from the result",
			exam:   &ExamDefinition{TotalMarks: 60},
			result: RawResult{TotalMarks: intPtr(10), TotalQuestions: intPtr(5)},
			marks:  60, questions: 5, totals: TotalsFromExam,
		},
		{
			name:   "embedded totals when there is no exam",
			result: RawResult{TotalMarks: intPtr(20), TotalQuestions: intPtr(4)},
			marks:  20, questions: 4, totals: TotalsFromResult,
		},
		{
			name:   "legacy total points stand in for total marks",
			result: RawResult{TotalPoints: intPtr(15)},
			marks:  15, questions: 6, totals: TotalsFromResult,
		},
		{
			name:   "exam type of the exam",
			exam:   &ExamDefinition{Type: ExamTypeSecondTest},
			marks:  30, questions: 6, totals: TotalsFromExamType,
		},
		{
			name:   "exam type alias on the result",
			result: RawResult{ExamType: "Final Exam", TotalQuestions: intPtr(12)},
			marks:  60, questions: 12, totals: TotalsFromExamType,
		},
		{
			name:   "unknown exam type falls to the hard default",
			result: RawResult{ExamType: "quiz"},
			marks:  30, questions: 6, totals: TotalsDefault,
		},
		{
			name:   "non-positive values are absent",
			exam:   exam(0, -3),
			result: RawResult{TotalMarks: intPtr(0), TotalQuestions: intPtr(0), ExamType: "test1"},
			marks:  10, questions: 6, totals: TotalsFromExamType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Reconcile(tc.exam, tc.result)
			if got.TotalMarks != tc.marks || got.TotalQuestions != tc.questions {
				t.Errorf("expected %d/%d, got %d/%d", tc.marks, tc.questions, got.TotalMarks, got.TotalQuestions)
			}
			if got.Totals != tc.totals {
				t.Errorf("expected source %s, got %s", tc.totals, got.Totals)
			}
			if got.TotalQuestions < 1 {
				t.Errorf("total questions must never drop below 1")
			}
		})
	}
}

func TestReconcile_CountProperty(t *testing.T) {
	for _, m := range []int{10, 30, 60, 100} {
		for _, q := range []int{1, 3, 6, 7, 10} {
			for c := 0; c <= q; c++ {
				got := Reconcile(exam(m, q), RawResult{CorrectAnswers: intPtr(c)})
				want := float64(c) * (float64(m) / float64(q))
				if math.Abs(got.EarnedMarks-want) > 1e-9 {
					t.Fatalf("m=%d q=%d c=%d: expected earned %v, got %v", m, q, c, want, got.EarnedMarks)
				}
				wantPct := int(math.Floor(got.EarnedMarks/float64(m)*100 + 0.5))
				if got.Percentage != wantPct {
					t.Fatalf("m=%d q=%d c=%d: expected percentage %d, got %d", m, q, c, wantPct, got.Percentage)
				}
			}
		}
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	def := exam(60, 10)
	inputs := []RawResult{
		{Score: floatPtr(45)},
		{Score: floatPtr(7)},
		{EarnedPoints: floatPtr(33)},
		{Answers: []Answer{{IsCorrect: true}, {IsCorrect: true}}},
	}
	for _, in := range inputs {
		first := Reconcile(def, in)
		second := Reconcile(def, RawResult{CorrectAnswers: intPtr(first.CorrectAnswers)})
		if first.CorrectAnswers != second.CorrectAnswers ||
			first.EarnedMarks != second.EarnedMarks ||
			first.Percentage != second.Percentage {
			t.Errorf("re-reconciling %+v changed the score: %+v then %+v", in, first, second)
		}
	}
}

func TestClassify(t *testing.T) {
	if _, ok := Classify(RawResult{}).(NoEvidence); !ok {
		t.Errorf("expected NoEvidence for an empty record")
	}
	if ev, ok := Classify(RawResult{CorrectAnswers: intPtr(0)}).(ByCount); !ok || ev.Correct != 0 {
		t.Errorf("expected an explicit zero count to be present, got %#v", ev)
	}
	if ev, ok := Classify(RawResult{Score: floatPtr(0)}).(ByScore); !ok || ev.Value != 0 {
		t.Errorf("expected an explicit zero score to be present, got %#v", ev)
	}
	if ev, ok := Classify(RawResult{Answers: []Answer{{IsCorrect: true}}}).(ByAnswers); !ok || ev.Correct != 1 {
		t.Errorf("expected ByAnswers{1}, got %#v", ev)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.5, 1}, {1.5, 2}, {2.5, 3}, {2.4999, 2}, {66.6667, 67}, {-0.5, 0}, {0, 0},
		{1e19, math.MaxInt32}, {1e300, math.MaxInt32}, {-1e300, math.MinInt32},
		{math.MaxInt32 + 0.4, math.MaxInt32},
	}
	for _, tc := range tests {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Errorf("roundHalfUp(%v): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
