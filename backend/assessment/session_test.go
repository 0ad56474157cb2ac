package assessment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingua/backend/catalog"
	"lingua/backend/models"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	a, err := catalog.Default().Get("chapter3-assessment")
	require.NoError(t, err)
	return NewSession(a)
}

// answerAll selects and advances through every question with answers.
func answerAll(t *testing.T, s *Session, answers []string) bool {
	t.Helper()
	var completing bool
	for _, ans := range answers {
		require.NoError(t, s.Select(ans))
		var err error
		completing, err = s.Advance()
		require.NoError(t, err)
	}
	return completing
}

func TestAdvanceWithoutSelectionIsNoop(t *testing.T) {
	s := newTestSession(t)
	before := s.Snapshot()

	completing, err := s.Advance()
	require.NoError(t, err)
	assert.False(t, completing)
	assert.Equal(t, before, s.Snapshot())
}

func TestSelectDoesNotCheckCorrectness(t *testing.T) {
	s := newTestSession(t)
	q := s.Assessment().Questions[0]

	require.NoError(t, s.Select(wrongOption(q)))
	v := s.Snapshot()
	assert.Equal(t, wrongOption(q), v.Selected)
	assert.True(t, v.CanAdvance)

	require.NoError(t, s.Select(q.Correct), "selection can change before advancing")
	assert.Equal(t, q.Correct, s.Snapshot().Selected)
}

func TestSelectUnknownOption(t *testing.T) {
	s := newTestSession(t)
	err := s.Select("Je voudrais des croissants")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Empty(t, s.Snapshot().Selected)
}

func TestAdvanceMovesToNextQuestion(t *testing.T) {
	s := newTestSession(t)
	questions := s.Assessment().Questions

	for n := 1; n < len(questions); n++ {
		require.NoError(t, s.Select(questions[n-1].Options[0]))
		completing, err := s.Advance()
		require.NoError(t, err)
		assert.False(t, completing)

		v := s.Snapshot()
		assert.Equal(t, n, v.Answered)
		assert.Len(t, s.Answers(), n)
		assert.Empty(t, v.Selected, "selection is cleared after each advance")
		assert.False(t, v.CanAdvance)
		assert.Equal(t, n+1, v.QuestionNumber)
		assert.Equal(t, questions[n].Prompt, v.Prompt)
		assert.InDelta(t, float64(n+1)/float64(len(questions))*100, v.Progress, 0.001)
	}
}

func TestAdvanceLabels(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, LabelNextQuestion, s.Snapshot().AdvanceLabel)

	questions := s.Assessment().Questions
	answerAll(t, s, answersWithCorrect(questions, 6)[:len(questions)-1])
	assert.Equal(t, LabelFinish, s.Snapshot().AdvanceLabel)
}

func TestFinalAdvanceScoresAttempt(t *testing.T) {
	s := newTestSession(t)
	answers := answersWithCorrect(s.Assessment().Questions, 5)

	completing := answerAll(t, s, answers)
	assert.True(t, completing)
	assert.Equal(t, StateCompleting, s.State())
	assert.Equal(t, answers, s.Answers())

	r, ok := s.Result()
	require.True(t, ok)
	assert.Equal(t, 83, r.Score)
	assert.Equal(t, 50, r.XP)

	v := s.Snapshot()
	assert.Equal(t, 100.0, v.Progress)
	require.NotNil(t, v.Celebration)
	assert.False(t, v.Celebration.Visible, "dialog stays hidden until the tracker confirmed")

	_, err := s.Advance()
	assert.ErrorIs(t, err, ErrNotAnswering)
	assert.ErrorIs(t, s.Select(answers[0]), ErrNotAnswering)
}

func TestCompletePassedAttempt(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, answersWithCorrect(s.Assessment().Questions, 5))

	tracker := newFakeTracker()
	require.NoError(t, s.Complete(context.Background(), tracker))

	assert.Equal(t, []string{"lesson", "xp", "unlock"}, tracker.ops())
	assert.Equal(t, models.LessonRecord{
		LessonID:  "assessment",
		ChapterID: "chapter3",
		Completed: true,
		Score:     83,
		TimeSpent: 0,
		Attempts:  1,
	}, tracker.calls[0].Arg)
	assert.Equal(t, 50, tracker.calls[1].Arg)
	assert.Equal(t, "chapter4", tracker.calls[2].Arg)

	v := s.Snapshot()
	assert.Equal(t, StateFinished, v.State)
	require.NotNil(t, v.Celebration)
	assert.True(t, v.Celebration.Visible)
	assert.Equal(t, VariantLessonComplete, v.Celebration.Variant)
	assert.Equal(t, 50, v.Celebration.XPEarned)
}

func TestCompletePerfectAttempt(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, answersWithCorrect(s.Assessment().Questions, 6))

	tracker := newFakeTracker()
	require.NoError(t, s.Complete(context.Background(), tracker))

	assert.Equal(t, 60, tracker.calls[1].Arg)
	assert.Equal(t, VariantPerfectScore, s.Snapshot().Celebration.Variant)
}

func TestFailedAttemptNeverUnlocks(t *testing.T) {
	for _, correct := range []int{0, 3, 4} {
		s := newTestSession(t)
		answerAll(t, s, answersWithCorrect(s.Assessment().Questions, correct))

		tracker := newFakeTracker()
		require.NoError(t, s.Complete(context.Background(), tracker))

		assert.Equal(t, []string{"lesson", "xp"}, tracker.ops())
		record := tracker.calls[0].Arg.(models.LessonRecord)
		assert.False(t, record.Completed)
		assert.Equal(t, 30, tracker.calls[1].Arg)
	}
}

func TestCompleteFailureKeepsScoreAndResumes(t *testing.T) {
	s := newTestSession(t)
	answers := answersWithCorrect(s.Assessment().Questions, 6)
	answerAll(t, s, answers)

	tracker := newFakeTracker()
	tracker.failOn["xp"] = 1

	err := s.Complete(context.Background(), tracker)
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, StepGrantXP, stepErr.Step)
	assert.ErrorIs(t, err, errTrackerDown)

	v := s.Snapshot()
	assert.Equal(t, StateFailed, v.State)
	assert.True(t, v.CanRetry)
	assert.NotEmpty(t, v.Error)
	assert.False(t, v.Celebration.Visible)
	assert.Equal(t, 100, v.Result.Score)
	assert.Equal(t, answers, s.Answers())
	assert.Equal(t, []StepStatus{
		{Step: StepRecordProgress, Status: "done"},
		{Step: StepGrantXP, Status: "failed"},
		{Step: StepUnlockChapter, Status: "pending"},
	}, v.Steps)

	require.NoError(t, s.Complete(context.Background(), tracker))
	assert.Equal(t, []string{"lesson", "xp", "unlock"}, tracker.ops(), "progress is recorded once")

	v = s.Snapshot()
	assert.Equal(t, StateFinished, v.State)
	assert.True(t, v.Celebration.Visible)
	assert.Empty(t, v.Error)
	assert.False(t, v.CanRetry)
}

func TestCompleteCancelledContext(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, answersWithCorrect(s.Assessment().Questions, 6))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tracker := newFakeTracker()
	err := s.Complete(ctx, tracker)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tracker.ops())
	assert.Equal(t, StateFailed, s.State())
}

func TestCompleteRequiresFinalAnswer(t *testing.T) {
	s := newTestSession(t)
	err := s.Complete(context.Background(), newFakeTracker())
	assert.ErrorIs(t, err, ErrNotCompleting)
}

func TestDismiss(t *testing.T) {
	s := newTestSession(t)
	assert.ErrorIs(t, s.Dismiss(), ErrNotFinished)

	answerAll(t, s, answersWithCorrect(s.Assessment().Questions, 2))
	assert.ErrorIs(t, s.Dismiss(), ErrNotFinished)

	require.NoError(t, s.Complete(context.Background(), newFakeTracker()))
	require.NoError(t, s.Dismiss())

	v := s.Snapshot()
	assert.Equal(t, StateDismissed, v.State)
	assert.False(t, v.Celebration.Visible)
	assert.ErrorIs(t, s.Complete(context.Background(), newFakeTracker()), ErrNotCompleting)
}

type slowTracker struct {
	*fakeTracker
	delay time.Duration
}

func (s slowTracker) UpdateLessonProgress(ctx context.Context, r models.LessonRecord) error {
	time.Sleep(s.delay)
	return s.fakeTracker.UpdateLessonProgress(ctx, r)
}

func (s slowTracker) AddXP(ctx context.Context, amount int) error {
	time.Sleep(s.delay)
	return s.fakeTracker.AddXP(ctx, amount)
}

func (s slowTracker) UnlockChapter(ctx context.Context, chapterID string) error {
	time.Sleep(s.delay)
	return s.fakeTracker.UnlockChapter(ctx, chapterID)
}

// Run with -race: snapshots taken while steps are running must not race
// with step progress.
func TestSnapshotDuringComplete(t *testing.T) {
	s := newTestSession(t)
	answerAll(t, s, answersWithCorrect(s.Assessment().Questions, 6))

	tracker := slowTracker{fakeTracker: newFakeTracker(), delay: 5 * time.Millisecond}
	done := make(chan error, 1)
	go func() { done <- s.Complete(context.Background(), tracker) }()

	var sawProgress bool
	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			v := s.Snapshot()
			assert.Equal(t, StateFinished, v.State)
			for _, st := range v.Steps {
				assert.Equal(t, "done", st.Status)
			}
			assert.True(t, sawProgress, "expected a snapshot while completing")
			return
		default:
			v := s.Snapshot()
			if v.State == StateCompleting {
				sawProgress = true
			}
		}
	}
}
