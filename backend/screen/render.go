package screen

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lingua/backend/assessment"
)

const (
	backHint      = "← Retour"
	colorAccent   = lipgloss.Color("63")
	colorMuted    = lipgloss.Color("244")
	colorSelected = lipgloss.Color("212")
	colorError    = lipgloss.Color("196")
	colorPerfect  = lipgloss.Color("220")
	colorComplete = lipgloss.Color("42")
)

func (m Model) View() string {
	v := m.session.Snapshot()

	if v.Celebration != nil && v.Celebration.Visible {
		return m.renderDialog(*v.Celebration)
	}

	sections := []string{
		m.renderHeader(v),
		m.bar.ViewAs(v.Progress / 100),
		m.style(fmt.Sprintf("Question %d sur %d", v.QuestionNumber, v.QuestionCount), colorMuted),
		m.bold(v.Prompt),
		m.renderOptions(v),
		m.renderContinue(v),
		m.style(fmt.Sprintf("Progression: %d / %d questions", v.QuestionNumber, v.QuestionCount), colorMuted),
	}
	if status := m.renderStatus(v); status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, m.renderKeys(v))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader(v assessment.View) string {
	title := m.bold(v.Title)
	if v.Subtitle != "" {
		title += "\n" + m.style(v.Subtitle, colorMuted)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.style(backHint, colorAccent)+"   ", title) + "\n"
}

func (m Model) renderOptions(v assessment.View) string {
	var b strings.Builder
	for i, option := range v.Options {
		cursor := "  "
		if i == m.cursor && v.State == assessment.StateAnswering {
			cursor = "> "
		}
		mark := "( )"
		if option == v.Selected {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %d. %s", cursor, mark, i+1, option)
		if option == v.Selected {
			line = m.style(line, colorSelected)
		}
		b.WriteString(line)
		if i < len(v.Options)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderContinue(v assessment.View) string {
	label := "[ " + v.AdvanceLabel + " ]"
	if !v.CanAdvance {
		return m.style(label, colorMuted)
	}
	return m.style(label, colorAccent)
}

func (m Model) renderStatus(v assessment.View) string {
	switch {
	case m.inFlight:
		return m.spinner.View() + " Enregistrement de la progression..."
	case v.State == assessment.StateFailed:
		msg := "Impossible d'enregistrer la progression"
		if v.Error != "" {
			msg += ": " + v.Error
		}
		if v.Result != nil {
			msg += fmt.Sprintf("\nScore: %d%%", v.Result.Score)
		}
		return m.style(msg, colorError)
	case m.err != nil:
		return m.style(m.err.Error(), colorError)
	}
	return ""
}

func (m Model) renderKeys(v assessment.View) string {
	var keys string
	switch {
	case m.inFlight:
		keys = "ctrl+c: quitter"
	case v.State == assessment.StateFailed:
		keys = "r: réessayer · esc: quitter"
	default:
		keys = "↑/↓: choisir · espace/1-4: sélectionner · entrée: valider · esc: retour"
	}
	return "\n" + m.style(keys, colorMuted)
}

func (m Model) renderDialog(c assessment.Celebration) string {
	accent := colorComplete
	if c.Variant == assessment.VariantPerfectScore {
		accent = colorPerfect
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		m.bold(c.Title),
		"",
		c.Message,
		m.style(fmt.Sprintf("+%d XP", c.XPEarned), accent),
		"",
		m.style("entrée: continuer", colorMuted),
	)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 4)
	if !m.noColor {
		box = box.BorderForeground(accent)
	}
	return box.Render(body)
}

func (m Model) style(text string, color lipgloss.Color) string {
	if m.noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

func (m Model) bold(text string) string {
	if m.noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}
