package habits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	habitdto "carepath/internal/modules/habit/dto"
	"carepath/internal/ui/theme"
)

const monthLayout = "2006-01"

// ─── port ────────────────────────────────────────────────────────────────────

type HabitPort interface {
	List(ctx context.Context, month string) ([]habitdto.HabitOutput, error)
	Calendar(ctx context.Context, id, month string) (habitdto.CalendarOutput, error)
	Stats(ctx context.Context, date string) (habitdto.StatsOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type HabitsLoadedMsg struct {
	Habits []habitdto.HabitOutput
	Month  string
	Err    error
}

type CalendarLoadedMsg struct {
	Calendar habitdto.CalendarOutput
	Err      error
}

type StatsLoadedMsg struct {
	Stats habitdto.StatsOutput
	Err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type habitItem struct {
	h       habitdto.HabitOutput
	pending bool
}

func (i habitItem) Title() string {
	mark := "○ "
	if i.h.CompletedToday {
		mark = "● "
	}
	return mark + i.h.Title
}

func (i habitItem) Description() string {
	desc := fmt.Sprintf("%s · %d days this month", i.h.Category, i.h.CompletedDays)
	if i.pending || i.h.InFlight {
		desc += " · saving…"
	}
	return desc
}

func (i habitItem) FilterValue() string { return i.h.Title }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port     HabitPort
	list     list.Model
	spinner  spinner.Model
	month    string
	calendar habitdto.CalendarOutput
	stats    habitdto.StatsOutput
	pending  map[string]bool
	loading  bool
	width    int
	height   int
}

func New(port HabitPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Green).BorderForeground(theme.Green)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Green)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Habits"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Green)

	return Model{
		port:    port,
		list:    l,
		spinner: sp,
		pending: map[string]bool{},
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadHabitsCmd(m.month), m.loadStatsCmd(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.listWidth(), m.height)

	case HabitsLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			return m, nil
		}
		if msg.Month != "" {
			m.month = msg.Month
		}
		cmds = append(cmds, m.setItems(msg.Habits))
		if id, ok := m.SelectedHabitID(); ok {
			cmds = append(cmds, m.loadCalendarCmd(id, m.month))
		} else {
			m.calendar = habitdto.CalendarOutput{}
		}

	case CalendarLoadedMsg:
		if msg.Err == nil {
			m.calendar = msg.Calendar
			if m.month == "" {
				m.month = msg.Calendar.Month
			}
		}

	case StatsLoadedMsg:
		if msg.Err == nil {
			m.stats = msg.Stats
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if !m.Filtering() {
			switch msg.String() {
			case "[":
				return m, m.SetMonth(shiftMonth(m.month, -1))
			case "]":
				return m, m.SetMonth(shiftMonth(m.month, 1))
			}
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			if id, ok := m.SelectedHabitID(); ok {
				cmds = append(cmds, m.loadCalendarCmd(id, m.month))
			}
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading habits…")
	}

	listPane := lipgloss.NewStyle().
		Width(m.listWidth()).
		Height(m.height).
		Render(m.list.View())

	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStats(),
		"",
		m.renderCalendar(),
		"",
		theme.Muted.Render("space: toggle today  [ ]: month  : palette"),
	)
	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Padding(1).
		Width(m.width - m.listWidth() - 2).
		Height(m.height - 2).
		Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload re-reads the shown month and today's stats.
func (m Model) Reload() tea.Cmd {
	return tea.Batch(m.loadHabitsCmd(m.month), m.loadStatsCmd())
}

// SetMonth switches the displayed month (YYYY-MM).
func (m *Model) SetMonth(month string) tea.Cmd {
	m.month = month
	return m.loadHabitsCmd(month)
}

func (m Model) Month() string { return m.month }

// MarkPending flags a habit while its toggle is outstanding.
func (m *Model) MarkPending(id string, pending bool) {
	if pending {
		m.pending[id] = true
	} else {
		delete(m.pending, id)
	}
	items := m.list.Items()
	for i, it := range items {
		if hi, ok := it.(habitItem); ok && hi.h.ID == id {
			hi.pending = pending
			m.list.SetItem(i, hi)
		}
	}
}

func (m Model) SelectedHabitID() (string, bool) {
	if item, ok := m.list.SelectedItem().(habitItem); ok {
		return item.h.ID, true
	}
	return "", false
}

func (m Model) SelectedHabitTitle() string {
	if item, ok := m.list.SelectedItem().(habitItem); ok {
		return item.h.Title
	}
	return ""
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) listWidth() int {
	return m.width * 4 / 10
}

func (m *Model) setItems(habits []habitdto.HabitOutput) tea.Cmd {
	items := make([]list.Item, len(habits))
	for i, h := range habits {
		items[i] = habitItem{h: h, pending: m.pending[h.ID]}
	}
	return m.list.SetItems(items)
}

func (m Model) renderStats() string {
	s := m.stats
	if s.Date == "" {
		return theme.Muted.Render("no stats yet")
	}
	const width = 20
	filled := s.CompletionRate * width / 100
	bar := lipgloss.NewStyle().Foreground(theme.Green).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Surface1).Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s\n%s %d/%d  %d%%",
		theme.Title.Render("Today "+s.Date), bar, s.Completed, s.Total, s.CompletionRate)
}

var (
	cellStyle    = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	outsideStyle = cellStyle.Foreground(theme.Overlay0)
	checkedStyle = cellStyle.Foreground(theme.Green).Bold(true)
	todayStyle   = cellStyle.Foreground(theme.Peach).Bold(true).Underline(true)
)

// RenderGrid draws a calendar as seven columns. Rows follow the order of
// cal.Days.
func RenderGrid(cal habitdto.CalendarOutput) string {
	header := make([]string, 0, 7)
	for _, d := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		header = append(header, theme.Muted.Inherit(cellStyle).Render(d))
	}
	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	for start := 0; start < len(cal.Days); start += 7 {
		end := start + 7
		if end > len(cal.Days) {
			end = len(cal.Days)
		}
		cells := make([]string, 0, 7)
		for _, d := range cal.Days[start:end] {
			cells = append(cells, renderCell(d))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCell(d habitdto.CalendarDay) string {
	label := fmt.Sprintf("%d", d.Day)
	if d.IsChecked {
		label = "✓" + label
	}
	switch {
	case !d.IsCurrentMonth:
		return outsideStyle.Render(fmt.Sprintf("%d", d.Day))
	case d.IsToday:
		return todayStyle.Render(label)
	case d.IsChecked:
		return checkedStyle.Render(label)
	default:
		return cellStyle.Render(label)
	}
}

func (m Model) renderCalendar() string {
	month := m.month
	if t, err := time.Parse(monthLayout, month); err == nil {
		month = t.Format("January 2006")
	}
	if m.calendar.HabitID == "" {
		return theme.Title.Render(month) + "\n" + theme.Muted.Render("Select a habit to see its month")
	}
	title := fmt.Sprintf("%s  %s · %d days", month, m.calendar.HabitTitle, m.calendar.CompletedDays)
	return theme.Title.Render(title) + "\n" + RenderGrid(m.calendar)
}

func (m Model) loadHabitsCmd(month string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return HabitsLoadedMsg{Month: month}
		}
		habits, err := m.port.List(context.Background(), month)
		return HabitsLoadedMsg{Habits: habits, Month: month, Err: err}
	}
}

func (m Model) loadCalendarCmd(id, month string) tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return CalendarLoadedMsg{}
		}
		cal, err := m.port.Calendar(context.Background(), id, month)
		return CalendarLoadedMsg{Calendar: cal, Err: err}
	}
}

func (m Model) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return StatsLoadedMsg{}
		}
		st, err := m.port.Stats(context.Background(), "")
		return StatsLoadedMsg{Stats: st, Err: err}
	}
}

func shiftMonth(month string, delta int) string {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		t = time.Now()
	}
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, delta, 0).Format(monthLayout)
}
