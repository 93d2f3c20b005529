package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"carepath/internal/ui/theme"
)

// ConfirmResultMsg reports the answer to a Confirm prompt.
type ConfirmResultMsg struct {
	Subject  string
	Accepted bool
}

var confirmStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.Yellow).
	Background(theme.Mantle).
	Foreground(theme.Text).
	Padding(1, 2)

// Confirm is a y/n overlay. Subject identifies what is being confirmed so the
// answer can be routed back to it.
type Confirm struct {
	subject  string
	question string
	visible  bool
}

func (c Confirm) Visible() bool   { return c.visible }
func (c Confirm) Subject() string { return c.subject }

func (c *Confirm) Ask(subject, question string) {
	c.subject = subject
	c.question = question
	c.visible = true
}

func (c Confirm) Update(msg tea.Msg) (Confirm, tea.Cmd) {
	if !c.visible {
		return c, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}
	var accepted bool
	switch key.String() {
	case "y", "Y":
		accepted = true
	case "n", "N", "esc":
	default:
		return c, nil
	}
	c.visible = false
	subject := c.subject
	return c, func() tea.Msg { return ConfirmResultMsg{Subject: subject, Accepted: accepted} }
}

func (c Confirm) View() string {
	if !c.visible {
		return ""
	}
	return confirmStyle.Render(theme.Title.Render(c.question) + "\n\n" + theme.Muted.Render("y: confirm  n: cancel"))
}
