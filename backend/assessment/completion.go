package assessment

import (
	"context"
	"fmt"
	"sync"

	"lingua/backend/models"
)

// Tracker is the progress subsystem an assessment reports to.
type Tracker interface {
	UpdateLessonProgress(ctx context.Context, record models.LessonRecord) error
	AddXP(ctx context.Context, amount int) error
	UnlockChapter(ctx context.Context, chapterID string) error
}

type Step int

const (
	StepRecordProgress Step = iota
	StepGrantXP
	StepUnlockChapter
)

func (s Step) String() string {
	switch s {
	case StepRecordProgress:
		return "record_progress"
	case StepGrantXP:
		return "grant_xp"
	case StepUnlockChapter:
		return "unlock_chapter"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(text []byte) error {
	for _, candidate := range []Step{StepRecordProgress, StepGrantXP, StepUnlockChapter} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", text)
}

// StepError reports the saga step that failed.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type StepStatus struct {
	Step   Step   `json:"step"`
	Status string `json:"status"` // done, pending, failed
}

// Completion reports an attempt to the tracker as an ordered sequence of
// steps: record the lesson, grant XP, then unlock the next chapter when
// the attempt passed. Each step runs only after the previous one returned.
// A failed run can be resumed; steps that already succeeded are skipped.
type Completion struct {
	record models.LessonRecord
	xp     int
	unlock string

	done   int
	failed bool
}

func NewCompletion(a *models.Assessment, r Result) *Completion {
	c := &Completion{
		record: models.LessonRecord{
			LessonID:  a.LessonID,
			ChapterID: a.ChapterID,
			Completed: r.Passed,
			Score:     r.Score,
			TimeSpent: 0,
			Attempts:  1,
		},
		xp: r.XP,
	}
	if r.Passed {
		c.unlock = a.Unlocks
	}
	return c
}

func (c *Completion) Record() models.LessonRecord { return c.record }

// Steps lists the planned steps in execution order.
func (c *Completion) Steps() []Step {
	steps := []Step{StepRecordProgress, StepGrantXP}
	if c.unlock != "" {
		steps = append(steps, StepUnlockChapter)
	}
	return steps
}

func (c *Completion) Finished() bool {
	return c.done == len(c.Steps())
}

func (c *Completion) Status() []StepStatus {
	steps := c.Steps()
	out := make([]StepStatus, len(steps))
	for i, s := range steps {
		status := "pending"
		switch {
		case i < c.done:
			status = "done"
		case i == c.done && c.failed:
			status = "failed"
		}
		out[i] = StepStatus{Step: s, Status: status}
	}
	return out
}

// Run executes the remaining steps. It stops at the first failure and
// returns a *StepError; calling Run again resumes from that step.
func (c *Completion) Run(ctx context.Context, t Tracker) error {
	return c.run(ctx, t, noLock{})
}

// run is Run with step progress read and written under mu. Tracker calls
// are made with mu released.
func (c *Completion) run(ctx context.Context, t Tracker, mu sync.Locker) error {
	steps := c.Steps()
	for {
		mu.Lock()
		if c.done >= len(steps) {
			mu.Unlock()
			return nil
		}
		step := steps[c.done]
		mu.Unlock()

		err := ctx.Err()
		if err == nil {
			err = c.exec(ctx, t, step)
		}

		mu.Lock()
		if err != nil {
			c.failed = true
			mu.Unlock()
			return &StepError{Step: step, Err: err}
		}
		c.done++
		c.failed = false
		mu.Unlock()
	}
}

type noLock struct{}

func (noLock) Lock()   {}
func (noLock) Unlock() {}

func (c *Completion) exec(ctx context.Context, t Tracker, step Step) error {
	switch step {
	case StepRecordProgress:
		return t.UpdateLessonProgress(ctx, c.record)
	case StepGrantXP:
		return t.AddXP(ctx, c.xp)
	case StepUnlockChapter:
		return t.UnlockChapter(ctx, c.unlock)
	}
	return fmt.Errorf("unknown step %d", int(step))
}
