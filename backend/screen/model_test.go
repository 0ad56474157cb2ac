package screen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lingua/backend/assessment"
	"lingua/backend/catalog"
	"lingua/backend/models"
)

var errOffline = errors.New("offline")

type stubTracker struct {
	mu      sync.Mutex
	ops     []string
	failXP  int
	records []models.LessonRecord
}

func (s *stubTracker) UpdateLessonProgress(_ context.Context, r models.LessonRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "lesson")
	s.records = append(s.records, r)
	return nil
}

func (s *stubTracker) AddXP(_ context.Context, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failXP > 0 {
		s.failXP--
		return errOffline
	}
	s.ops = append(s.ops, "xp")
	return nil
}

func (s *stubTracker) UnlockChapter(_ context.Context, chapterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "unlock:"+chapterID)
	return nil
}

func newModel(t *testing.T, tracker assessment.Tracker) Model {
	t.Helper()
	a, err := catalog.Default().Get("chapter3-assessment")
	require.NoError(t, err)
	return New(assessment.NewSession(a), tracker, Options{NoColor: true})
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press feeds keys to the model and runs any completion the keys start.
func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
		if msg, ok := findCompletion(cmd); ok {
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m, cmd
}

func findCompletion(cmd tea.Cmd) (completionMsg, bool) {
	if cmd == nil {
		return completionMsg{}, false
	}
	switch msg := cmd().(type) {
	case completionMsg:
		return msg, true
	case tea.BatchMsg:
		for _, c := range msg {
			if found, ok := findCompletion(c); ok {
				return found, true
			}
		}
	}
	return completionMsg{}, false
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// optionKey returns the number key selecting the correct (or a wrong) option.
func optionKey(q models.Question, correct bool) string {
	for i, o := range q.Options {
		if (o == q.Correct) == correct {
			return string(rune('1' + i))
		}
	}
	return ""
}

func answerKeys(questions []models.Question, correct int) []string {
	var keys []string
	for i, q := range questions {
		keys = append(keys, optionKey(q, i < correct), "enter")
	}
	return keys
}

func TestInitialView(t *testing.T) {
	m := newModel(t, &stubTracker{})
	out := m.View()

	assert.Contains(t, out, "← Retour")
	assert.Contains(t, out, m.Session().Assessment().Title)
	assert.Contains(t, out, "Question 1 sur 6")
	assert.Contains(t, out, "Progression: 1 / 6 questions")
	assert.Contains(t, out, assessment.LabelNextQuestion)
	assert.Contains(t, out, m.Session().Assessment().Questions[0].Prompt)
}

func TestEnterWithoutSelectionIsNoop(t *testing.T) {
	m := newModel(t, &stubTracker{})
	m, _ = press(t, m, "down", "enter")

	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, 1, m.Session().Snapshot().QuestionNumber)
}

func TestCursorAndSpaceSelect(t *testing.T) {
	m := newModel(t, &stubTracker{})
	q := m.Session().Assessment().Questions[0]

	m, _ = press(t, m, "down", "j", "k", " ")
	assert.Equal(t, q.Options[1], m.Session().Snapshot().Selected)
	assert.Contains(t, m.View(), "> (•) 2. "+q.Options[1])

	m, _ = press(t, m, "up", "up", "up")
	assert.Equal(t, 0, m.cursor, "cursor stops at the first option")

	m, _ = press(t, m, "enter")
	v := m.Session().Snapshot()
	assert.Equal(t, 2, v.QuestionNumber)
	assert.Empty(t, v.Selected)
	assert.Equal(t, 0, m.cursor)
}

func TestPassingRunShowsDialogAndQuits(t *testing.T) {
	tracker := &stubTracker{}
	m := newModel(t, tracker)
	questions := m.Session().Assessment().Questions

	keys := answerKeys(questions, 5)
	m, _ = press(t, m, keys[:len(keys)-2]...)
	assert.Contains(t, m.View(), assessment.LabelFinish)

	m, _ = press(t, m, keys[len(keys)-2:]...)
	assert.Equal(t, []string{"lesson", "xp", "unlock:chapter4"}, tracker.ops)
	assert.True(t, tracker.records[0].Completed)
	assert.Equal(t, 83, tracker.records[0].Score)

	out := m.View()
	assert.Contains(t, out, assessment.CelebrationTitle)
	assert.Contains(t, out, "Score Final: 83%")
	assert.Contains(t, out, "+50 XP")

	m, cmd := press(t, m, "enter")
	assert.True(t, isQuit(cmd))
	assert.Equal(t, OutcomeCompleted, m.Outcome())
	assert.Equal(t, assessment.StateDismissed, m.Session().State())
}

func TestFailedRunDoesNotUnlock(t *testing.T) {
	tracker := &stubTracker{}
	m := newModel(t, tracker)

	m, _ = press(t, m, answerKeys(m.Session().Assessment().Questions, 4)...)
	assert.Equal(t, []string{"lesson", "xp"}, tracker.ops)
	assert.Contains(t, m.View(), "Score Final: 67%")
	assert.Contains(t, m.View(), "+30 XP")
}

func TestTrackerFailureOffersRetry(t *testing.T) {
	tracker := &stubTracker{failXP: 1}
	m := newModel(t, tracker)

	m, _ = press(t, m, answerKeys(m.Session().Assessment().Questions, 6)...)
	assert.Equal(t, assessment.StateFailed, m.Session().State())
	out := m.View()
	assert.Contains(t, out, "Impossible d'enregistrer la progression")
	assert.Contains(t, out, errOffline.Error())
	assert.Contains(t, out, "r: réessayer")
	assert.NotContains(t, out, assessment.CelebrationTitle)

	// Answers are frozen while failed.
	m, _ = press(t, m, "1", "enter")
	assert.Equal(t, assessment.StateFailed, m.Session().State())

	m, _ = press(t, m, "r")
	assert.Equal(t, []string{"lesson", "xp", "unlock:chapter4"}, tracker.ops)
	assert.Contains(t, m.View(), "Score Final: 100%")
}

func TestSpinnerWhileInFlight(t *testing.T) {
	m := newModel(t, &stubTracker{})
	keys := answerKeys(m.Session().Assessment().Questions, 6)
	m, _ = press(t, m, keys[:len(keys)-1]...)

	next, cmd := m.Update(key("enter"))
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.inFlight)
	assert.Contains(t, m.View(), "Enregistrement de la progression")

	// Keys other than ctrl+c are ignored until the run reports back.
	next, cmd = m.Update(key("esc"))
	assert.False(t, isQuit(cmd))
	m = next.(Model)

	msg, ok := findCompletion(m.complete())
	require.True(t, ok)
	next, _ = m.Update(msg)
	m = next.(Model)
	assert.False(t, m.inFlight)
	assert.True(t, strings.Contains(m.View(), assessment.CelebrationTitle))
}

func TestBackLeavesWithoutReporting(t *testing.T) {
	tracker := &stubTracker{}
	m := newModel(t, tracker)

	m, cmd := press(t, m, "2", "enter", "esc")
	assert.True(t, isQuit(cmd))
	assert.Equal(t, OutcomeAbandoned, m.Outcome())
	assert.Empty(t, tracker.ops)
}
