package assessment

import (
	"context"
	"errors"
	"sync"

	"lingua/backend/models"
)

// answersWithCorrect answers the first n questions correctly and the
// rest with a wrong option.
func answersWithCorrect(questions []models.Question, n int) []string {
	answers := make([]string, len(questions))
	for i, q := range questions {
		answers[i] = q.Correct
		if i >= n {
			answers[i] = wrongOption(q)
		}
	}
	return answers
}

func wrongOption(q models.Question) string {
	for _, o := range q.Options {
		if o != q.Correct {
			return o
		}
	}
	return ""
}

var errTrackerDown = errors.New("tracker unavailable")

type call struct {
	Op  string
	Arg interface{}
}

type fakeTracker struct {
	mu     sync.Mutex
	calls  []call
	failOn map[string]int // op -> remaining failures
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{failOn: map[string]int{}}
}

func (f *fakeTracker) record(op string, arg interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn[op] > 0 {
		f.failOn[op]--
		return errTrackerDown
	}
	f.calls = append(f.calls, call{Op: op, Arg: arg})
	return nil
}

func (f *fakeTracker) UpdateLessonProgress(_ context.Context, r models.LessonRecord) error {
	return f.record("lesson", r)
}

func (f *fakeTracker) AddXP(_ context.Context, amount int) error {
	return f.record("xp", amount)
}

func (f *fakeTracker) UnlockChapter(_ context.Context, chapterID string) error {
	return f.record("unlock", chapterID)
}

func (f *fakeTracker) ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Op
	}
	return out
}
