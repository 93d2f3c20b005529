package protocols

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	protocoldto "carepath/internal/modules/protocol/dto"
	"carepath/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type ProtocolPort interface {
	List(ctx context.Context) ([]protocoldto.AssignmentOutput, error)
	Refresh(ctx context.Context) ([]protocoldto.AssignmentOutput, error)
	Get(ctx context.Context, id string) (protocoldto.AssignmentDetailOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type AssignmentsLoadedMsg struct {
	Items []protocoldto.AssignmentOutput
	Err   error
}

type DetailLoadedMsg struct {
	Detail protocoldto.AssignmentDetailOutput
	Err    error
}

// ─── list item ───────────────────────────────────────────────────────────────

type assignmentItem struct {
	a protocoldto.AssignmentOutput
}

func (i assignmentItem) Title() string { return i.a.Name }
func (i assignmentItem) Description() string {
	desc := theme.Badge(i.a.DisplayStatus, i.a.DisplayColor)
	if i.a.IsActive {
		desc += fmt.Sprintf(" · day %d · %.0f%%", i.a.CurrentDay, i.a.Progress)
	}
	if i.a.CanStart {
		desc += " · ready to start"
	}
	return desc
}
func (i assignmentItem) FilterValue() string { return i.a.Name }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    ProtocolPort
	list    list.Model
	preview viewport.Model
	spinner spinner.Model
	detail  protocoldto.AssignmentDetailOutput
	focusID string
	loading bool
	width   int
	height  int
}

func New(port ProtocolPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Protocols"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		preview: vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(false), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case AssignmentsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.Items))
		selected := -1
		for i, a := range msg.Items {
			items[i] = assignmentItem{a: a}
			if a.ID == m.focusID {
				selected = i
			}
		}
		cmds = append(cmds, m.list.SetItems(items))
		if selected >= 0 {
			m.list.Select(selected)
			m.focusID = ""
		}
		if item, ok := m.list.SelectedItem().(assignmentItem); ok {
			cmds = append(cmds, m.loadDetailCmd(item.a.ID))
		}

	case DetailLoadedMsg:
		if msg.Err == nil {
			m.detail = msg.Detail
			m.preview.SetContent(m.renderDetail())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if item, ok := m.list.SelectedItem().(assignmentItem); ok {
				cmds = append(cmds, m.loadDetailCmd(item.a.ID))
			}
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading protocols…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload asks the backend for a fresh list.
func (m Model) Reload() tea.Cmd {
	return m.loadCmd(true)
}

// Show selects id once the cached list has been re-read.
func (m *Model) Show(id string) tea.Cmd {
	m.focusID = id
	return tea.Batch(m.loadCmd(false), m.loadDetailCmd(id))
}

func (m Model) SelectedID() (string, bool) {
	if item, ok := m.list.SelectedItem().(assignmentItem); ok {
		return item.a.ID, true
	}
	return "", false
}

func (m Model) SelectedName() string {
	if item, ok := m.list.SelectedItem().(assignmentItem); ok {
		return item.a.Name
	}
	return ""
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) renderDetail() string {
	d := m.detail
	if d.ID == "" {
		return theme.Muted.Render("Select a protocol to see details")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Name) + "  " + theme.Badge(d.DisplayStatus, d.DisplayColor) + "\n\n")
	if d.Doctor != "" {
		sb.WriteString(theme.Muted.Render("doctor:    ") + d.Doctor + "\n")
	}
	if d.DurationDays > 0 {
		sb.WriteString(fmt.Sprintf("%s%d days\n", theme.Muted.Render("duration:  "), d.DurationDays))
	}
	sb.WriteString(theme.Muted.Render("planned:   ") + day(d.PlannedStartDate) + " → " + day(d.PlannedEndDate) + "\n")
	if d.ActualStartDate != nil {
		sb.WriteString(theme.Muted.Render("started:   ") + day(d.ActualStartDate) + "\n")
	}
	if d.IsActive {
		sb.WriteString(fmt.Sprintf("%sday %d\n", theme.Muted.Render("current:   "), d.CurrentDay))
		sb.WriteString(fmt.Sprintf("%s%.0f%%\n", theme.Muted.Render("adherence: "), d.AdherenceRate))
		sb.WriteString(fmt.Sprintf("%s%.0f%%\n", theme.Muted.Render("progress:  "), d.Progress))
	}
	switch d.Phase {
	case "awaiting_confirmation":
		sb.WriteString("\n" + theme.Hot.Render("waiting for confirmation") + "\n")
	case "starting":
		sb.WriteString("\n" + theme.Hot.Render("starting…") + "\n")
	}
	if d.BlockReason != "" {
		sb.WriteString("\n" + theme.Muted.Render(d.BlockReason) + "\n")
	}
	if d.Description != "" {
		sb.WriteString("\n" + d.Description + "\n")
	}
	hint := "r: refresh"
	if d.CanStart {
		hint = "s: start protocol  " + hint
	}
	sb.WriteString("\n" + theme.Muted.Render(hint))
	return sb.String()
}

func (m Model) loadCmd(refresh bool) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return AssignmentsLoadedMsg{}
		}
		var (
			items []protocoldto.AssignmentOutput
			err   error
		)
		if refresh {
			items, err = m.port.Refresh(context.Background())
		} else {
			items, err = m.port.List(context.Background())
		}
		return AssignmentsLoadedMsg{Items: items, Err: err}
	}
}

func (m Model) loadDetailCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return DetailLoadedMsg{}
		}
		detail, err := m.port.Get(context.Background(), id)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}
