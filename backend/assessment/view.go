package assessment

// View is a read-only rendering of a session.
type View struct {
	ID           string `json:"id"`
	AssessmentID string `json:"assessment_id"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	State        State  `json:"state"`

	QuestionNumber int      `json:"question_number"`
	QuestionCount  int      `json:"question_count"`
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	Selected       string   `json:"selected,omitempty"`
	Answered       int      `json:"answered"`
	Progress       float64  `json:"progress"` // percent

	CanAdvance   bool   `json:"can_advance"`
	AdvanceLabel string `json:"advance_label"`

	Result      *Result      `json:"result,omitempty"`
	Steps       []StepStatus `json:"steps,omitempty"`
	Error       string       `json:"error,omitempty"`
	CanRetry    bool         `json:"can_retry"`
	Celebration *Celebration `json:"celebration,omitempty"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := s.assessment
	q := a.Questions[s.index]
	n := len(a.Questions)

	v := View{
		ID:             s.ID,
		AssessmentID:   a.ID,
		Title:          a.Title,
		Subtitle:       a.Subtitle,
		State:          s.state,
		QuestionNumber: s.index + 1,
		QuestionCount:  n,
		Prompt:         q.Prompt,
		Options:        append([]string(nil), q.Options...),
		Selected:       s.selected,
		Answered:       len(s.answers),
		Progress:       float64(s.index+1) / float64(n) * 100,
		CanAdvance:     s.state == StateAnswering && s.selected != "",
		AdvanceLabel:   LabelNextQuestion,
	}
	if s.index == n-1 {
		v.AdvanceLabel = LabelFinish
	}

	if s.completion != nil {
		r := s.result
		v.Result = &r
		v.Steps = s.completion.Status()
		c := NewCelebration(r, s.dialogVisible)
		v.Celebration = &c
	}
	if s.state == StateFailed {
		v.CanRetry = !s.inFlight
		if s.lastErr != nil {
			v.Error = s.lastErr.Error()
		}
	}
	return v
}
