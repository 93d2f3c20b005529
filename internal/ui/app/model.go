package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	habitdto "carepath/internal/modules/habit/dto"
	protocoldto "carepath/internal/modules/protocol/dto"
	sessiondto "carepath/internal/modules/session/dto"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/ui/components"
	"carepath/internal/ui/theme"
	habitsview "carepath/internal/ui/views/habits"
	protocolsview "carepath/internal/ui/views/protocols"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface that this orchestration layer requires.
// Sub-view ports are defined in their own packages and narrowed further.

type protocolPort interface {
	protocolsview.ProtocolPort
	RequestStart(ctx context.Context, id string) (protocoldto.AssignmentDetailOutput, error)
	CancelStart(ctx context.Context, id string) error
	ConfirmStart(ctx context.Context, id string) (protocoldto.StartOutput, error)
}

type habitPort interface {
	habitsview.HabitPort
	Add(ctx context.Context, title, category string) (habitdto.HabitOutput, error)
	Edit(ctx context.Context, id, title, category string) (habitdto.HabitOutput, error)
	Remove(ctx context.Context, id string) error
	Toggle(ctx context.Context, id, date string) (habitdto.ToggleOutput, error)
}

type sessionPort interface {
	Status(ctx context.Context) (sessiondto.StatusOutput, error)
}

// navigationSource delivers assignment ids the protocol screen should show.
type navigationSource interface {
	Requests() <-chan string
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabProtocols tabID = iota
	tabHabits
	tabCount
)

var tabLabels = [tabCount]string{
	"Protocols", "Habits",
}

// ─── async messages ───────────────────────────────────────────────────────────

type sessionLoadedMsg struct {
	status sessiondto.StatusOutput
	err    error
}

type startRequestedMsg struct {
	detail protocoldto.AssignmentDetailOutput
	err    error
}

type startFinishedMsg struct {
	out protocoldto.StartOutput
	err error
}

type startCancelledMsg struct{ err error }

type navigateMsg struct{ id string }

type habitToggledMsg struct {
	habitID string
	title   string
	out     habitdto.ToggleOutput
	err     error
}

type habitChangedMsg struct {
	verb  string
	title string
	err   error
}

type statsMsg struct {
	out habitdto.StatsOutput
	err error
}

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Refresh key.Binding
	Start   key.Binding
	Toggle  key.Binding
	Month   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start protocol")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle today")),
		Month:   key.NewBinding(key.WithKeys("[", "]"), key.WithHelp("[/]", "month")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh},
		{k.Start},
		{k.Toggle, k.Month},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the start
// confirmation prompt, the help overlay and the command palette. Remote work
// runs in tea.Cmds so input is never blocked.
type Model struct {
	protocol protocolPort
	habit    habitPort
	session  sessionPort
	nav      navigationSource

	protoView protocolsview.Model
	habitView habitsview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	confirm   components.Confirm
	account   sessiondto.StatusOutput
	status    string
	width     int
	height    int
}

// ─── constructor ─────────────────────────────────────────────────────────────

func NewModel(protocol protocolPort, habit habitPort, session sessionPort, nav navigationSource) Model {
	return Model{
		protocol:  protocol,
		habit:     habit,
		session:   session,
		nav:       nav,
		protoView: protocolsview.New(protocol),
		habitView: habitsview.New(habit),
		activeTab: tabProtocols,
		keys:      defaultKeys(),
		help:      help.New(),
		palette:   components.NewPalette(),
		status:    "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.protoView.Init(),
		m.habitView.Init(),
		m.loadSessionCmd(),
		m.waitForNavigation(),
	)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// Overlays intercept all input while open.
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}
	if _, isKey := msg.(tea.KeyMsg); isKey && m.confirm.Visible() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case sessionLoadedMsg:
		if msg.err != nil {
			m.status = "session: " + msg.err.Error()
			return m, nil
		}
		m.account = msg.status
		if !msg.status.LoggedIn {
			m.status = "not logged in: run carepath login"
			if msg.status.Expired {
				m.status = "session expired: run carepath login"
			}
		}
		return m, nil

	case startRequestedMsg:
		if msg.err != nil {
			m.status = describe("start", msg.err)
			return m, m.loadSessionIfExpired(msg.err)
		}
		question := fmt.Sprintf("Start %s now?", msg.detail.Name)
		if msg.detail.DurationDays > 0 {
			question = fmt.Sprintf("Start %s now? It runs for %d days.", msg.detail.Name, msg.detail.DurationDays)
		}
		m.confirm.Ask(msg.detail.ID, question)
		return m, nil

	case components.ConfirmResultMsg:
		if msg.Accepted {
			m.status = "starting protocol…"
			return m, m.confirmStartCmd(msg.Subject)
		}
		return m, m.cancelStartCmd(msg.Subject)

	case startCancelledMsg:
		m.status = "start cancelled"
		if msg.err != nil {
			m.status = describe("cancel", msg.err)
		}
		return m, nil

	case startFinishedMsg:
		var already *apperrors.AlreadyStartedError
		switch {
		case errors.As(msg.err, &already):
			m.status = "protocol already started on " + already.StartDate
			return m, m.protoView.Reload()
		case msg.err != nil:
			m.status = describe("start", msg.err)
			return m, m.loadSessionIfExpired(msg.err)
		}
		m.status = "protocol started"
		return m, nil

	case navigateMsg:
		m.activeTab = tabProtocols
		return m, tea.Batch(m.protoView.Show(msg.id), m.waitForNavigation())

	case habitToggledMsg:
		m.habitView.MarkPending(msg.habitID, false)
		if msg.err != nil {
			m.status = describe("toggle", msg.err)
			return m, m.loadSessionIfExpired(msg.err)
		}
		state := "not done"
		if msg.out.IsChecked {
			state = "done"
		}
		m.status = fmt.Sprintf("%s on %s: %s", msg.title, msg.out.Date, state)
		return m, m.habitView.Reload()

	case habitChangedMsg:
		if msg.err != nil {
			m.status = describe(msg.verb, msg.err)
			return m, m.loadSessionIfExpired(msg.err)
		}
		m.status = fmt.Sprintf("habit %s: %s", msg.verb, msg.title)
		return m, m.habitView.Reload()

	case statsMsg:
		if msg.err != nil {
			m.status = describe("stats", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("%s: %d/%d habits done (%d%%)", msg.out.Date, msg.out.Completed, msg.out.Total, msg.out.CompletionRate)
		return m, nil

	case protocolsview.AssignmentsLoadedMsg:
		if msg.Err != nil {
			m.status = describe("protocols", msg.Err)
			cmds = append(cmds, m.loadSessionIfExpired(msg.Err))
		}
		var cmd tea.Cmd
		m.protoView, cmd = m.protoView.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case protocolsview.DetailLoadedMsg:
		var cmd tea.Cmd
		m.protoView, cmd = m.protoView.Update(msg)
		return m, cmd

	case habitsview.HabitsLoadedMsg:
		if msg.Err != nil {
			m.status = describe("habits", msg.Err)
			cmds = append(cmds, m.loadSessionIfExpired(msg.Err))
		}
		var cmd tea.Cmd
		m.habitView, cmd = m.habitView.Update(msg)
		return m, tea.Batch(append(cmds, cmd)...)

	case habitsview.CalendarLoadedMsg, habitsview.StatsLoadedMsg:
		var cmd tea.Cmd
		m.habitView, cmd = m.habitView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		// Yield to sub-view when its search filter is active.
		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			return m, m.palette.Open()
		case "r":
			m.status = "refreshing…"
			if m.activeTab == tabProtocols {
				return m, m.protoView.Reload()
			}
			return m, m.habitView.Reload()
		case "s":
			if m.activeTab == tabProtocols {
				return m, m.requestStartSelected()
			}
		case " ", "x":
			if m.activeTab == tabHabits {
				return m, m.toggleSelected("")
			}
		}
	}

	// Propagate the message to the active tab's sub-view.
	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabProtocols:
		m.protoView, tabCmd = m.protoView.Update(msg)
	case tabHabits:
		m.habitView, tabCmd = m.habitView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	tabBarH := lipgloss.Height(tabBar)
	statusBarH := lipgloss.Height(statusBar)

	contentH := m.height - tabBarH - statusBarH
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.confirm.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.confirm.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabProtocols:
		return m.protoView.View()
	case tabHabits:
		return m.habitView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "carepath  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.account.LoggedIn {
		left = theme.Hot.Render("● "+m.account.Source) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)
	rest := func(n int) string {
		return strings.TrimSpace(strings.Join(parts[n:], " "))
	}
	habitID, hasHabit := m.habitView.SelectedHabitID()

	switch parts[0] {
	case "protocol:refresh":
		m.activeTab = tabProtocols
		return m, m.protoView.Reload()

	case "protocol:start":
		m.activeTab = tabProtocols
		return m, m.requestStartSelected()

	case "habit:add":
		if len(parts) < 3 {
			m.status = "usage: habit:add <category> <title>"
			return m, nil
		}
		m.activeTab = tabHabits
		return m, m.addHabitCmd(rest(2), parts[1])

	case "habit:rename":
		if !hasHabit || len(parts) < 2 {
			m.status = "usage: habit:rename <title> (with a habit selected)"
			return m, nil
		}
		return m, m.editHabitCmd(habitID, rest(1), "")

	case "habit:category":
		if !hasHabit || len(parts) != 2 {
			m.status = "usage: habit:category <personal|health|work> (with a habit selected)"
			return m, nil
		}
		return m, m.editHabitCmd(habitID, "", parts[1])

	case "habit:rm":
		if !hasHabit {
			m.status = "no habit selected"
			return m, nil
		}
		return m, m.removeHabitCmd(habitID, m.habitView.SelectedHabitTitle())

	case "habit:toggle":
		date := ""
		if len(parts) >= 2 {
			date = parts[1]
		}
		m.activeTab = tabHabits
		return m, m.toggleSelected(date)

	case "habit:month":
		if len(parts) != 2 {
			m.status = "usage: habit:month <YYYY-MM>"
			return m, nil
		}
		m.activeTab = tabHabits
		return m, m.habitView.SetMonth(parts[1])

	case "habit:stats":
		date := ""
		if len(parts) >= 2 {
			date = parts[1]
		}
		return m, m.statsCmd(date)

	case "session:status":
		return m, m.loadSessionCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// subViewFiltering reports whether the active tab's list filter is open,
// in which case global key bindings must yield to allow free typing.
func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabProtocols:
		return m.protoView.Filtering()
	case tabHabits:
		return m.habitView.Filtering()
	}
	return false
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.protoView, _ = m.protoView.Update(sz)
	m.habitView, _ = m.habitView.Update(sz)
}

func (m *Model) requestStartSelected() tea.Cmd {
	id, ok := m.protoView.SelectedID()
	if !ok {
		m.status = "no protocol selected"
		return nil
	}
	return m.requestStartCmd(id)
}

func (m *Model) toggleSelected(date string) tea.Cmd {
	id, ok := m.habitView.SelectedHabitID()
	if !ok {
		m.status = "no habit selected"
		return nil
	}
	title := m.habitView.SelectedHabitTitle()
	m.habitView.MarkPending(id, true)
	m.status = "saving " + title + "…"
	return m.toggleCmd(id, title, date)
}

// describe turns an error into a status line.
func describe(op string, err error) string {
	var already *apperrors.AlreadyStartedError
	switch {
	case errors.Is(err, apperrors.ErrSessionExpired):
		return "session expired: run carepath login"
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return "not logged in: run carepath login"
	case errors.As(err, &already):
		return "already started on " + already.StartDate
	case errors.Is(err, apperrors.ErrStartInFlight):
		return "a start for this protocol is already in progress"
	case errors.Is(err, apperrors.ErrConcurrentToggle):
		return "still saving the previous change for this habit"
	case errors.Is(err, apperrors.ErrRefreshDeferred):
		return "refresh postponed: a change is still being saved"
	default:
		return op + " failed: " + err.Error()
	}
}

func (m Model) loadSessionIfExpired(err error) tea.Cmd {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		return m.loadSessionCmd()
	}
	return nil
}

// ─── async commands ───────────────────────────────────────────────────────────

func (m Model) loadSessionCmd() tea.Cmd {
	return func() tea.Msg {
		if m.session == nil {
			return sessionLoadedMsg{}
		}
		st, err := m.session.Status(context.Background())
		return sessionLoadedMsg{status: st, err: err}
	}
}

func (m Model) waitForNavigation() tea.Cmd {
	if m.nav == nil {
		return nil
	}
	ch := m.nav.Requests()
	return func() tea.Msg {
		id, ok := <-ch
		if !ok {
			return nil
		}
		return navigateMsg{id: id}
	}
}

func (m Model) requestStartCmd(id string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.protocol.RequestStart(context.Background(), id)
		return startRequestedMsg{detail: detail, err: err}
	}
}

func (m Model) confirmStartCmd(id string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.protocol.ConfirmStart(context.Background(), id)
		return startFinishedMsg{out: out, err: err}
	}
}

func (m Model) cancelStartCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return startCancelledMsg{err: m.protocol.CancelStart(context.Background(), id)}
	}
}

func (m Model) toggleCmd(id, title, date string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.habit.Toggle(context.Background(), id, date)
		return habitToggledMsg{habitID: id, title: title, out: out, err: err}
	}
}

func (m Model) addHabitCmd(title, category string) tea.Cmd {
	return func() tea.Msg {
		h, err := m.habit.Add(context.Background(), title, category)
		return habitChangedMsg{verb: "added", title: h.Title, err: err}
	}
}

func (m Model) editHabitCmd(id, title, category string) tea.Cmd {
	return func() tea.Msg {
		h, err := m.habit.Edit(context.Background(), id, title, category)
		return habitChangedMsg{verb: "updated", title: h.Title, err: err}
	}
}

func (m Model) removeHabitCmd(id, title string) tea.Cmd {
	return func() tea.Msg {
		err := m.habit.Remove(context.Background(), id)
		return habitChangedMsg{verb: "removed", title: title, err: err}
	}
}

func (m Model) statsCmd(date string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.habit.Stats(context.Background(), date)
		return statsMsg{out: out, err: err}
	}
}
