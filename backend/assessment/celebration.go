package assessment

import "fmt"

type Variant string

const (
	VariantPerfectScore   Variant = "perfect_score"
	VariantLessonComplete Variant = "lesson_complete"
)

const CelebrationTitle = "Évaluation Terminée! 📝"

// Celebration is what the completion dialog displays.
type Celebration struct {
	Visible  bool    `json:"visible"`
	Title    string  `json:"title"`
	Message  string  `json:"message"`
	Variant  Variant `json:"variant"`
	XPEarned int     `json:"xp_earned"`
}

func NewCelebration(r Result, visible bool) Celebration {
	variant := VariantLessonComplete
	if r.Score == PerfectScore {
		variant = VariantPerfectScore
	}
	return Celebration{
		Visible:  visible,
		Title:    CelebrationTitle,
		Message:  fmt.Sprintf("Score Final: %d%%", r.Score),
		Variant:  variant,
		XPEarned: r.XP,
	}
}
