package domain_test

import (
	"errors"
	"testing"
	"time"

	"carepath/internal/modules/habit/domain"
	apperrors "carepath/internal/platform/errors"
)

var march = domain.YearMonth{Year: 2026, Month: time.March}

func loaded(habits ...domain.Habit) domain.ProgressState {
	s, _ := domain.ReduceProgress(domain.ProgressState{}, domain.HabitsLoaded{Habits: habits, Month: march})
	return s
}

func rejection(effects []domain.ProgressEffect) error {
	for _, e := range effects {
		if r, ok := e.(domain.ProgressRejected); ok {
			return r.Err
		}
	}
	return nil
}

func TestToggleInFlightIsPerHabit(t *testing.T) {
	t.Parallel()
	s := loaded(habitWith("a"), habitWith("b"))

	s, effects := domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "a", Date: "2026-03-01"})
	if len(effects) != 1 {
		t.Fatalf("expected one effect, got %v", effects)
	}
	if call, ok := effects[0].(domain.CallToggle); !ok || call.HabitID != "a" {
		t.Fatalf("expected toggle call, got %#v", effects[0])
	}

	_, effects = domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "a", Date: "2026-03-02"})
	if err := rejection(effects); !errors.Is(err, apperrors.ErrConcurrentToggle) {
		t.Fatalf("a different date on the same habit must be rejected, got %v", err)
	}

	s, effects = domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "b", Date: "2026-03-01"})
	if rejection(effects) != nil || !s.Busy("a") || !s.Busy("b") {
		t.Fatalf("different habits must toggle concurrently")
	}
}

func TestToggleReconcilesWithServerValue(t *testing.T) {
	t.Parallel()
	s := loaded(habitWith("a"))
	day := "2026-03-04"

	for _, server := range []bool{true, true} {
		s, _ = domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "a", Date: day})
		s, _ = domain.ReduceProgress(s, domain.ToggleSucceeded{HabitID: "a", Date: day, Result: domain.ToggleResult{IsChecked: server}})
	}
	h, _ := s.Find("a")
	if !domain.IsCompletedOn(h, day) || len(h.Progress) != 1 {
		t.Fatalf("state must follow the last server answer, got %+v", h.Progress)
	}
	if s.Busy("a") {
		t.Fatalf("flag must clear after success")
	}
}

func TestToggleFailureLeavesProgressUntouched(t *testing.T) {
	t.Parallel()
	before := loaded(habitWith("a", domain.ProgressEntry{Date: "2026-03-01", IsChecked: true}))
	s, _ := domain.ReduceProgress(before, domain.ToggleRequested{HabitID: "a", Date: "2026-03-01"})
	s, effects := domain.ReduceProgress(s, domain.ToggleFailed{HabitID: "a", Err: apperrors.ErrToggleFailed})
	if !errors.Is(rejection(effects), apperrors.ErrToggleFailed) {
		t.Fatalf("expected failure to surface")
	}
	h, _ := s.Find("a")
	if !domain.IsCompletedOn(h, "2026-03-01") || s.Busy("a") {
		t.Fatalf("failure must keep progress and clear the flag, got %+v", h)
	}
}

func TestToggleUnknownHabit(t *testing.T) {
	t.Parallel()
	_, effects := domain.ReduceProgress(loaded(), domain.ToggleRequested{HabitID: "ghost", Date: "2026-03-01"})
	if !errors.Is(rejection(effects), apperrors.ErrNotFound) {
		t.Fatalf("expected not found")
	}
}

func TestHabitsLoadedDiscardedAfterOverlappingMutation(t *testing.T) {
	t.Parallel()
	s := loaded(habitWith("a"))
	_, effects := domain.ReduceProgress(s, domain.HabitsRequested{Month: march})
	fetch, ok := effects[0].(domain.FetchHabits)
	if !ok {
		t.Fatalf("expected fetch effect, got %#v", effects[0])
	}

	s, _ = domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "a", Date: "2026-03-01"})
	if _, effects := domain.ReduceProgress(s, domain.HabitsRequested{Month: march}); !errors.Is(rejection(effects), apperrors.ErrRefreshDeferred) {
		t.Fatalf("refresh must be deferred while a toggle is in flight")
	}
	s, _ = domain.ReduceProgress(s, domain.ToggleSucceeded{HabitID: "a", Date: "2026-03-01", Result: domain.ToggleResult{IsChecked: true}})

	stale, effects := domain.ReduceProgress(s, domain.HabitsLoaded{Habits: []domain.Habit{habitWith("a")}, Month: march, Generation: fetch.Generation})
	if !errors.Is(rejection(effects), apperrors.ErrRefreshDeferred) {
		t.Fatalf("overlapping fetch must be discarded")
	}
	h, _ := stale.Find("a")
	if !domain.IsCompletedOn(h, "2026-03-01") {
		t.Fatalf("confirmed toggle must survive a stale list")
	}
}

func TestHabitSavedAndDeleted(t *testing.T) {
	t.Parallel()
	s := loaded(habitWith("a", domain.ProgressEntry{Date: "2026-03-01", IsChecked: true}))

	s, _ = domain.ReduceProgress(s, domain.HabitSaved{Habit: domain.Habit{ID: "a", Title: "Renamed", Category: domain.CategoryWork}})
	h, _ := s.Find("a")
	if h.Title != "Renamed" || len(h.Progress) != 1 {
		t.Fatalf("update must keep cached progress when the server omits it, got %+v", h)
	}

	s, _ = domain.ReduceProgress(s, domain.HabitSaved{Habit: habitWith("b")})
	if len(s.Habits) != 2 {
		t.Fatalf("expected created habit to be appended")
	}

	before := s.Generation
	s, _ = domain.ReduceProgress(s, domain.HabitSaved{Habit: domain.Habit{Title: "No id"}})
	if len(s.Habits) != 2 || s.Generation != before {
		t.Fatalf("a habit without id must not be cached, got %+v", s.Habits)
	}

	s, _ = domain.ReduceProgress(s, domain.HabitDeleted{ID: "a"})
	if _, ok := s.Find("a"); ok || len(s.Habits) != 1 {
		t.Fatalf("expected habit a removed, got %+v", s.Habits)
	}
}

func TestReduceProgressDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	s := loaded(habitWith("a"), habitWith("b"))
	_, _ = domain.ReduceProgress(s, domain.HabitDeleted{ID: "a"})
	_, _ = domain.ReduceProgress(s, domain.ToggleRequested{HabitID: "b", Date: "2026-03-01"})
	if len(s.Habits) != 2 || s.Habits[0].ID != "a" || s.Busy("b") {
		t.Fatalf("input state was mutated: %+v", s)
	}
}
