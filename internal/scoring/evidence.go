package scoring

import "math"

// Evidence is the single piece of performance data a result is scored from.
// It is one of ByCount, ByScore, ByAnswers, ByEarnedPoints or NoEvidence.
type Evidence interface {
	evidence()
}

// ByCount is a direct count of correct answers.
type ByCount struct {
	Correct int
}

// ByScore is the ambiguous legacy score field: a count, a percentage or
// raw marks depending on its magnitude relative to the exam.
type ByScore struct {
	Value float64
}

// ByAnswers is the tally of answer entries marked correct.
type ByAnswers struct {
	Correct int
}

// ByEarnedPoints is an already-computed marks value.
type ByEarnedPoints struct {
	Points float64
}

// NoEvidence means the result carries no usable performance data.
type NoEvidence struct{}

func (ByCount) evidence()        {}
func (ByScore) evidence()        {}
func (ByAnswers) evidence()      {}
func (ByEarnedPoints) evidence() {}
func (NoEvidence) evidence()     {}

// Classify picks the evidence for r. The first present field wins, in order:
// CorrectAnswers, Score, Answers, EarnedPoints. Non-finite floats count as absent.
func Classify(r RawResult) Evidence {
	if r.CorrectAnswers != nil {
		return ByCount{Correct: *r.CorrectAnswers}
	}
	if r.Score != nil && finite(*r.Score) {
		return ByScore{Value: *r.Score}
	}
	if r.Answers != nil {
		n := 0
		for _, a := range r.Answers {
			if a.IsCorrect {
				n++
			}
		}
		return ByAnswers{Correct: n}
	}
	if r.EarnedPoints != nil && finite(*r.EarnedPoints) {
		return ByEarnedPoints{Points: *r.EarnedPoints}
	}
	return NoEvidence{}
}

// correctAnswers resolves ev into a correct-answer count for an exam with
// totalQuestions questions worth perQuestion marks each.
func correctAnswers(ev Evidence, totalQuestions int, perQuestion float64) (int, Basis) {
	switch e := ev.(type) {
	case ByCount:
		return clampCount(e.Correct), BasisCorrectAnswers
	case ByScore:
		q := float64(totalQuestions)
		switch {
		case e.Value <= q:
			return roundHalfUp(e.Value), BasisScoreCount
		case e.Value <= 100:
			return roundHalfUp(e.Value * q / 100), BasisScorePercentage
		default:
			return roundHalfUp(e.Value / perQuestion), BasisScoreMarks
		}
	case ByAnswers:
		return clampCount(e.Correct), BasisAnswers
	case ByEarnedPoints:
		return roundHalfUp(e.Points / perQuestion), BasisEarnedPoints
	default:
		return 0, BasisNone
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Counts are stored as int4, so they are held to the int32 range. Converting
// an out-of-range float to int is implementation-defined in Go.
const (
	maxCount = math.MaxInt32
	minCount = math.MinInt32
)

func clampCount(n int) int {
	return min(max(n, minCount), maxCount)
}

func roundHalfUp(f float64) int {
	f = math.Floor(f + 0.5)
	switch {
	case f >= maxCount:
		return maxCount
	case f <= minCount:
		return minCount
	}
	return int(f)
}
