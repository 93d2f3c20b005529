package app

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	habitdto "carepath/internal/modules/habit/dto"
	protocoldto "carepath/internal/modules/protocol/dto"
	sessiondto "carepath/internal/modules/session/dto"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/ui/components"
)

type fakeProtocols struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
}

func (f *fakeProtocols) List(context.Context) ([]protocoldto.AssignmentOutput, error) {
	return []protocoldto.AssignmentOutput{{ID: "12", Name: "Sleep", CanStart: true}}, nil
}
func (f *fakeProtocols) Refresh(ctx context.Context) ([]protocoldto.AssignmentOutput, error) {
	return f.List(ctx)
}
func (f *fakeProtocols) Get(_ context.Context, id string) (protocoldto.AssignmentDetailOutput, error) {
	return protocoldto.AssignmentDetailOutput{AssignmentOutput: protocoldto.AssignmentOutput{ID: id, Name: "Sleep"}}, nil
}
func (f *fakeProtocols) RequestStart(_ context.Context, id string) (protocoldto.AssignmentDetailOutput, error) {
	return protocoldto.AssignmentDetailOutput{AssignmentOutput: protocoldto.AssignmentOutput{ID: id, Name: "Sleep"}, DurationDays: 14}, nil
}
func (f *fakeProtocols) CancelStart(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}
func (f *fakeProtocols) ConfirmStart(_ context.Context, id string) (protocoldto.StartOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, id)
	return protocoldto.StartOutput{AssignmentID: id, Status: "ACTIVE"}, nil
}

type fakeHabits struct {
	added   []string
	toggled []string
}

func (f *fakeHabits) List(context.Context, string) ([]habitdto.HabitOutput, error) {
	return nil, nil
}
func (f *fakeHabits) Calendar(context.Context, string, string) (habitdto.CalendarOutput, error) {
	return habitdto.CalendarOutput{}, nil
}
func (f *fakeHabits) Stats(context.Context, string) (habitdto.StatsOutput, error) {
	return habitdto.StatsOutput{}, nil
}
func (f *fakeHabits) Add(_ context.Context, title, category string) (habitdto.HabitOutput, error) {
	f.added = append(f.added, category+"/"+title)
	return habitdto.HabitOutput{ID: "h1", Title: title, Category: category}, nil
}
func (f *fakeHabits) Edit(_ context.Context, id, title, category string) (habitdto.HabitOutput, error) {
	return habitdto.HabitOutput{ID: id, Title: title, Category: category}, nil
}
func (f *fakeHabits) Remove(context.Context, string) error { return nil }
func (f *fakeHabits) Toggle(_ context.Context, id, date string) (habitdto.ToggleOutput, error) {
	f.toggled = append(f.toggled, id)
	return habitdto.ToggleOutput{HabitID: id, Date: date, IsChecked: true}, nil
}

type fakeSession struct{}

func (fakeSession) Status(context.Context) (sessiondto.StatusOutput, error) {
	return sessiondto.StatusOutput{LoggedIn: true, Source: "file"}, nil
}

type fakeNav struct{ ch chan string }

func (n fakeNav) Requests() <-chan string { return n.ch }

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestStartAsksForConfirmation(t *testing.T) {
	t.Parallel()
	protocols := &fakeProtocols{}
	m := NewModel(protocols, &fakeHabits{}, fakeSession{}, nil)

	m, _ = update(t, m, startRequestedMsg{detail: protocoldto.AssignmentDetailOutput{
		AssignmentOutput: protocoldto.AssignmentOutput{ID: "12", Name: "Sleep"}, DurationDays: 14,
	}})
	if !m.confirm.Visible() || m.confirm.Subject() != "12" {
		t.Fatalf("expected a confirmation prompt for 12")
	}

	m, cmd := update(t, m, keyPress("n"))
	m, cmd = update(t, m, cmd())
	if msg := cmd(); msg != (startCancelledMsg{}) {
		t.Fatalf("expected cancellation, got %#v", msg)
	}
	if len(protocols.cancelled) != 1 || len(protocols.confirmed) != 0 {
		t.Fatalf("declining must cancel without starting: %+v", protocols)
	}

	m, _ = update(t, m, startRequestedMsg{detail: protocoldto.AssignmentDetailOutput{
		AssignmentOutput: protocoldto.AssignmentOutput{ID: "12", Name: "Sleep"},
	}})
	m, cmd = update(t, m, keyPress("y"))
	result, ok := cmd().(components.ConfirmResultMsg)
	if !ok || !result.Accepted {
		t.Fatalf("expected an accepted confirmation, got %#v", result)
	}
	m, cmd = update(t, m, result)
	finished, ok := cmd().(startFinishedMsg)
	if !ok || finished.err != nil || finished.out.AssignmentID != "12" {
		t.Fatalf("unexpected start result %#v", finished)
	}
	m, _ = update(t, m, finished)
	if m.status != "protocol started" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestNavigationSwitchesToProtocols(t *testing.T) {
	t.Parallel()
	nav := fakeNav{ch: make(chan string, 1)}
	m := NewModel(&fakeProtocols{}, &fakeHabits{}, fakeSession{}, nav)
	m.activeTab = tabHabits

	nav.ch <- "12"
	msg := m.waitForNavigation()()
	if msg != (navigateMsg{id: "12"}) {
		t.Fatalf("unexpected navigation message %#v", msg)
	}
	m, cmd := update(t, m, msg)
	if m.activeTab != tabProtocols || cmd == nil {
		t.Fatalf("expected protocols tab with follow-up commands")
	}
}

func TestPaletteCommands(t *testing.T) {
	t.Parallel()
	habits := &fakeHabits{}
	m := NewModel(&fakeProtocols{}, habits, fakeSession{}, nil)

	next, cmd := m.executePalette("habit:add health drink water")
	m = next.(Model)
	changed, ok := cmd().(habitChangedMsg)
	if !ok || changed.title != "drink water" || habits.added[0] != "health/drink water" {
		t.Fatalf("unexpected add result %#v %v", changed, habits.added)
	}
	if m.activeTab != tabHabits {
		t.Fatalf("habit commands must switch to the habits tab")
	}

	next, _ = m.executePalette("habit:add health")
	if got := next.(Model).status; got != "usage: habit:add <category> <title>" {
		t.Fatalf("unexpected usage status %q", got)
	}
	next, _ = m.executePalette("habit:rm")
	if got := next.(Model).status; got != "no habit selected" {
		t.Fatalf("unexpected status %q", got)
	}
	next, _ = m.executePalette("bogus")
	if got := next.(Model).status; got != "unknown command: bogus" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestDescribeMapsKnownErrors(t *testing.T) {
	t.Parallel()
	cases := map[error]string{
		apperrors.ErrSessionExpired:                             "session expired: run carepath login",
		apperrors.ErrConcurrentToggle:                           "still saving the previous change for this habit",
		&apperrors.AlreadyStartedError{StartDate: "2024-01-10"}: "already started on 2024-01-10",
	}
	for err, want := range cases {
		if got := describe("start", err); got != want {
			t.Fatalf("describe(%v) = %q, want %q", err, got, want)
		}
	}
}
