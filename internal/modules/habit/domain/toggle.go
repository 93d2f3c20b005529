package domain

import (
	"fmt"

	apperrors "carepath/internal/platform/errors"
)

// ProgressState is the client-side habit cache for one month plus the set of
// habits with a toggle in flight. Generation increases on every mutation so a
// list fetch that overlapped one can be discarded.
type ProgressState struct {
	Habits     []Habit
	Month      YearMonth
	Loaded     bool
	InFlight   map[string]bool
	Generation uint64
}

func (s ProgressState) Find(id string) (Habit, bool) {
	for _, h := range s.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return Habit{}, false
}

func (s ProgressState) Busy(id string) bool {
	return s.InFlight[id]
}

type ProgressEvent interface{ progressEvent() }

type ToggleRequested struct {
	HabitID string
	Date    string
}

type ToggleSucceeded struct {
	HabitID string
	Date    string
	Result  ToggleResult
}

type ToggleFailed struct {
	HabitID string
	Err     error
}

type HabitsRequested struct{ Month YearMonth }

type HabitsLoaded struct {
	Habits     []Habit
	Month      YearMonth
	Generation uint64
}

type HabitSaved struct{ Habit Habit }

type HabitDeleted struct{ ID string }

func (ToggleRequested) progressEvent() {}
func (ToggleSucceeded) progressEvent() {}
func (ToggleFailed) progressEvent()    {}
func (HabitsRequested) progressEvent() {}
func (HabitsLoaded) progressEvent()    {}
func (HabitSaved) progressEvent()      {}
func (HabitDeleted) progressEvent()    {}

type ProgressEffect interface{ progressEffect() }

type CallToggle struct {
	HabitID string
	Date    string
}

type FetchHabits struct {
	Month      YearMonth
	Generation uint64
}

type ProgressRejected struct{ Err error }

func (CallToggle) progressEffect()       {}
func (FetchHabits) progressEffect()      {}
func (ProgressRejected) progressEffect() {}

// ReduceProgress applies ev to s without mutating s.
func ReduceProgress(s ProgressState, ev ProgressEvent) (ProgressState, []ProgressEffect) {
	next := s.clone()
	switch ev := ev.(type) {
	case ToggleRequested:
		if s.Busy(ev.HabitID) {
			return s, rejectProgress(apperrors.ErrConcurrentToggle)
		}
		if _, ok := s.Find(ev.HabitID); !ok {
			return s, rejectProgress(fmt.Errorf("habit %s: %w", ev.HabitID, apperrors.ErrNotFound))
		}
		next.InFlight[ev.HabitID] = true
		next.Generation++
		return next, []ProgressEffect{CallToggle{HabitID: ev.HabitID, Date: ev.Date}}

	case ToggleSucceeded:
		delete(next.InFlight, ev.HabitID)
		for i, h := range next.Habits {
			if h.ID == ev.HabitID {
				next.Habits[i] = Merge(h, ev.Date, ev.Result.IsChecked)
			}
		}
		return next, nil

	case ToggleFailed:
		delete(next.InFlight, ev.HabitID)
		return next, rejectProgress(ev.Err)

	case HabitsRequested:
		if len(s.InFlight) > 0 {
			return s, rejectProgress(apperrors.ErrRefreshDeferred)
		}
		return s, []ProgressEffect{FetchHabits{Month: ev.Month, Generation: s.Generation}}

	case HabitsLoaded:
		if ev.Generation != s.Generation || len(s.InFlight) > 0 {
			return s, rejectProgress(apperrors.ErrRefreshDeferred)
		}
		next.Habits = append([]Habit(nil), ev.Habits...)
		next.Month = ev.Month
		next.Loaded = true
		return next, nil

	case HabitSaved:
		if ev.Habit.ID == "" {
			return s, nil
		}
		next.Generation++
		for i, h := range next.Habits {
			if h.ID == ev.Habit.ID {
				saved := ev.Habit
				if saved.Progress == nil {
					saved.Progress = h.Progress
				}
				next.Habits[i] = saved
				return next, nil
			}
		}
		next.Habits = append(next.Habits, ev.Habit)
		return next, nil

	case HabitDeleted:
		next.Generation++
		kept := next.Habits[:0]
		for _, h := range next.Habits {
			if h.ID != ev.ID {
				kept = append(kept, h)
			}
		}
		next.Habits = kept
		delete(next.InFlight, ev.ID)
		return next, nil
	}
	return s, nil
}

func (s ProgressState) clone() ProgressState {
	out := s
	out.Habits = append([]Habit(nil), s.Habits...)
	out.InFlight = make(map[string]bool, len(s.InFlight))
	for k, v := range s.InFlight {
		out.InFlight[k] = v
	}
	return out
}

func rejectProgress(err error) []ProgressEffect {
	return []ProgressEffect{ProgressRejected{Err: err}}
}
