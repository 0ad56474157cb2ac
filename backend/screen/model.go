// Package screen renders an assessment session as a Bubble Tea program.
package screen

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"lingua/backend/assessment"
)

// Outcome tells the caller how the screen was left.
type Outcome string

const (
	OutcomeAbandoned Outcome = "abandoned"
	OutcomeCompleted Outcome = "completed"
)

// Options configures the screen model.
type Options struct {
	NoColor bool
	// Timeout bounds one completion run. Zero means no limit.
	Timeout time.Duration
}

// Model drives one assessment session from the keyboard.
type Model struct {
	session *assessment.Session
	tracker assessment.Tracker

	cursor   int
	bar      progress.Model
	spinner  spinner.Model
	width    int
	noColor  bool
	timeout  time.Duration
	inFlight bool
	err      error
	outcome  Outcome
}

// completionMsg carries the result of a completion run.
type completionMsg struct {
	err error
}

func New(session *assessment.Session, tracker assessment.Tracker, opts Options) Model {
	barOpts := []progress.Option{progress.WithoutPercentage(), progress.WithWidth(40)}
	if opts.NoColor {
		barOpts = append(barOpts, progress.WithFillCharacters('#', '-'))
	} else {
		barOpts = append(barOpts, progress.WithDefaultGradient())
	}
	return Model{
		session: session,
		tracker: tracker,
		bar:     progress.New(barOpts...),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		noColor: opts.NoColor,
		timeout: opts.Timeout,
		outcome: OutcomeAbandoned,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Outcome is meaningful once the program has exited.
func (m Model) Outcome() Outcome {
	return m.outcome
}

func (m Model) Session() *assessment.Session {
	return m.session
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil
	case completionMsg:
		m.inFlight = false
		m.err = msg.err
		return m, nil
	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inFlight {
		return m, nil
	}

	switch m.session.State() {
	case assessment.StateAnswering:
		return m.handleAnsweringKey(key)
	case assessment.StateFailed:
		switch key {
		case "r":
			return m.startCompletion()
		case "esc", "q":
			return m, tea.Quit
		}
	case assessment.StateFinished:
		switch key {
		case "enter", "esc", "q", " ":
			if err := m.session.Dismiss(); err != nil {
				m.err = err
				return m, nil
			}
			m.outcome = OutcomeCompleted
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleAnsweringKey(key string) (tea.Model, tea.Cmd) {
	options := m.session.Snapshot().Options
	switch key {
	case "esc", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(options)-1 {
			m.cursor++
		}
	case " ":
		m.selectOption(options, m.cursor)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key[0] - '1')
		if idx < len(options) {
			m.cursor = idx
			m.selectOption(options, idx)
		}
	case "enter":
		before := m.session.Snapshot().QuestionNumber
		completing, err := m.session.Advance()
		if err != nil {
			m.err = err
			return m, nil
		}
		if completing {
			return m.startCompletion()
		}
		if m.session.Snapshot().QuestionNumber != before {
			m.cursor = 0
		}
	}
	return m, nil
}

func (m *Model) selectOption(options []string, idx int) {
	if idx < 0 || idx >= len(options) {
		return
	}
	m.err = m.session.Select(options[idx])
}

func (m Model) startCompletion() (tea.Model, tea.Cmd) {
	m.inFlight = true
	m.err = nil
	return m, tea.Batch(m.complete(), m.spinner.Tick)
}

func (m Model) complete() tea.Cmd {
	session, tracker, timeout := m.session, m.tracker, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return completionMsg{err: session.Complete(ctx, tracker)}
	}
}
