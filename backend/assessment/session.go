// Package assessment implements a linear multiple-choice quiz: answer
// selection, advancing, scoring, and reporting the outcome to a Tracker.
package assessment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"lingua/backend/models"
)

type State string

const (
	StateAnswering  State = "answering"
	StateCompleting State = "completing"
	StateFailed     State = "failed"
	StateFinished   State = "finished"
	StateDismissed  State = "dismissed"
)

const (
	LabelNextQuestion = "Question suivante"
	LabelFinish       = "Terminer l'évaluation"
)

var (
	ErrNotAnswering       = errors.New("session is not accepting answers")
	ErrUnknownOption      = errors.New("option does not belong to the current question")
	ErrNotCompleting      = errors.New("session has nothing to complete")
	ErrCompletionInFlight = errors.New("completion already in progress")
	ErrNotFinished        = errors.New("session is not finished")
)

// Session is one attempt at an assessment. It is safe for concurrent use;
// tracker calls made by Complete run without holding the session lock, and
// step progress is only touched with the lock held.
type Session struct {
	ID        string
	UserID    uint
	StartedAt time.Time

	assessment *models.Assessment

	mu            sync.Mutex
	state         State
	index         int
	selected      string
	answers       []string
	result        Result
	completion    *Completion
	inFlight      bool
	lastErr       error
	dialogVisible bool
	lastActive    time.Time
}

func NewSession(a *models.Assessment) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		StartedAt:  now,
		lastActive: now,
		assessment: a,
		state:      StateAnswering,
		answers:    make([]string, 0, len(a.Questions)),
	}
}

func (s *Session) Assessment() *models.Assessment {
	return s.assessment
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.answers...)
}

// Result returns the scored outcome once the last answer is in.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.completion != nil
}

// Select highlights option for the current question. Correctness is not
// checked here.
func (s *Session) Select(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAnswering {
		return ErrNotAnswering
	}
	if !s.assessment.Questions[s.index].HasOption(option) {
		return ErrUnknownOption
	}
	s.selected = option
	s.lastActive = time.Now()
	return nil
}

// Advance records the selected option. Without a selection it does
// nothing. On the last question it scores the attempt and moves the
// session to StateCompleting; the returned bool is true in that case and
// the caller is expected to call Complete.
func (s *Session) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAnswering {
		return false, ErrNotAnswering
	}
	if s.selected == "" {
		return false, nil
	}
	s.lastActive = time.Now()

	s.answers = append(s.answers, s.selected)
	if s.index < len(s.assessment.Questions)-1 {
		s.index++
		s.selected = ""
		return false, nil
	}

	s.result = Evaluate(s.assessment.Questions, s.answers)
	s.completion = NewCompletion(s.assessment, s.result)
	s.state = StateCompleting
	return true, nil
}

// Complete reports the attempt to t. On failure the session moves to
// StateFailed keeping its answers and score, and a later call resumes at
// the step that failed. The completion dialog becomes visible only after
// every step succeeded.
func (s *Session) Complete(ctx context.Context, t Tracker) error {
	s.mu.Lock()
	if s.state != StateCompleting && s.state != StateFailed {
		s.mu.Unlock()
		return ErrNotCompleting
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrCompletionInFlight
	}
	s.inFlight = true
	s.state = StateCompleting
	completion := s.completion
	s.mu.Unlock()

	err := completion.run(ctx, t, &s.mu)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	s.lastActive = time.Now()
	if err != nil {
		s.state = StateFailed
		s.lastErr = err
		return err
	}
	s.state = StateFinished
	s.lastErr = nil
	s.dialogVisible = true
	return nil
}

// Dismiss closes the completion dialog. The session is terminal afterwards.
func (s *Session) Dismiss() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFinished {
		return ErrNotFinished
	}
	s.dialogVisible = false
	s.state = StateDismissed
	s.lastActive = time.Now()
	return nil
}

// LastActive returns when the learner last changed the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Busy reports whether tracker calls are currently running.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}
