package assessment

import (
	"math"

	"lingua/backend/models"
)

const (
	PassThreshold = 70
	PerfectScore  = 100

	XPPerfect   = 60
	XPPassed    = 50
	XPAttempted = 30
)

// Result is the scored outcome of a finished attempt.
type Result struct {
	Correct int  `json:"correct"`
	Total   int  `json:"total"`
	Score   int  `json:"score"` // percent, 0-100
	Passed  bool `json:"passed"`
	Perfect bool `json:"perfect"`
	XP      int  `json:"xp"`
}

// Evaluate scores answers against questions position by position.
// An answer counts only when it equals the correct option exactly.
func Evaluate(questions []models.Question, answers []string) Result {
	correct := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.Correct {
			correct++
		}
	}

	score := ScoreFor(correct, len(questions))
	return Result{
		Correct: correct,
		Total:   len(questions),
		Score:   score,
		Passed:  score >= PassThreshold,
		Perfect: score == PerfectScore,
		XP:      ExperienceFor(score),
	}
}

// ScoreFor returns round(100*correct/total), halves rounding up.
func ScoreFor(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) * 100 / float64(total)))
}

// ExperienceFor maps a score to the XP it earns. A perfect score takes
// precedence over a plain pass.
func ExperienceFor(score int) int {
	switch {
	case score == PerfectScore:
		return XPPerfect
	case score >= PassThreshold:
		return XPPassed
	default:
		return XPAttempted
	}
}
