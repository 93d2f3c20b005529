package domain

import (
	"fmt"
	"time"

	apperrors "carepath/internal/platform/errors"
)

type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseStarting             Phase = "starting"
)

// LifecycleState is the client-side cache of assignments plus the start
// phase of each assignment id. Generation increases every time a start is
// sent so an in-progress list fetch can detect that it went stale.
type LifecycleState struct {
	Assignments []Assignment
	Loaded      bool
	Phases      map[string]Phase
	Generation  uint64
}

func (s LifecycleState) Phase(id string) Phase {
	if p, ok := s.Phases[id]; ok {
		return p
	}
	return PhaseIdle
}

func (s LifecycleState) Find(id string) (Assignment, bool) {
	for _, a := range s.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

func (s LifecycleState) Starting() int {
	n := 0
	for _, p := range s.Phases {
		if p == PhaseStarting {
			n++
		}
	}
	return n
}

type Event interface{ lifecycleEvent() }

type StartRequested struct {
	ID  string
	Now time.Time
}

type StartCancelled struct{ ID string }

type StartConfirmed struct {
	ID  string
	Now time.Time
}

type StartSucceeded struct{ ID string }

type StartFailed struct {
	ID  string
	Err error
}

type RefreshRequested struct{}

type ListLoaded struct {
	Assignments []Assignment
	Generation  uint64
}

func (StartRequested) lifecycleEvent()   {}
func (StartCancelled) lifecycleEvent()   {}
func (StartConfirmed) lifecycleEvent()   {}
func (StartSucceeded) lifecycleEvent()   {}
func (StartFailed) lifecycleEvent()      {}
func (RefreshRequested) lifecycleEvent() {}
func (ListLoaded) lifecycleEvent()       {}

type Effect interface{ lifecycleEffect() }

// CallStart asks the executor to send the remote start request.
type CallStart struct{ ID string }

// FetchList asks for a full list load tagged with the current generation.
type FetchList struct{ Generation uint64 }

type ReloadList struct{}

type NavigateDetail struct{ ID string }

// Rejected carries an error to surface to the caller; state is unchanged.
type Rejected struct{ Err error }

func (CallStart) lifecycleEffect()      {}
func (FetchList) lifecycleEffect()      {}
func (ReloadList) lifecycleEffect()     {}
func (NavigateDetail) lifecycleEffect() {}
func (Rejected) lifecycleEffect()       {}

// Reduce applies ev to s. It never mutates s; the returned state shares no
// maps or slices with the input.
func Reduce(s LifecycleState, ev Event) (LifecycleState, []Effect) {
	next := s.clone()
	switch ev := ev.(type) {
	case StartRequested:
		if next.Phase(ev.ID) == PhaseStarting {
			return s, reject(apperrors.ErrStartInFlight)
		}
		a, ok := next.Find(ev.ID)
		if !ok {
			return s, reject(fmt.Errorf("assignment %s: %w", ev.ID, apperrors.ErrNotFound))
		}
		if reason := BlockReason(a, ev.Now); reason != "" {
			return s, reject(&apperrors.TransitionError{AssignmentID: a.ID, Status: string(a.Status), Reason: reason})
		}
		next.Phases[ev.ID] = PhaseAwaitingConfirmation
		return next, nil

	case StartCancelled:
		if next.Phase(ev.ID) != PhaseAwaitingConfirmation {
			return s, nil
		}
		delete(next.Phases, ev.ID)
		return next, nil

	case StartConfirmed:
		if next.Phase(ev.ID) == PhaseStarting {
			return s, reject(apperrors.ErrStartInFlight)
		}
		a, ok := next.Find(ev.ID)
		if !ok {
			return s, reject(fmt.Errorf("assignment %s: %w", ev.ID, apperrors.ErrNotFound))
		}
		if reason := BlockReason(a, ev.Now); reason != "" {
			return s, reject(&apperrors.TransitionError{AssignmentID: a.ID, Status: string(a.Status), Reason: reason})
		}
		next.Phases[ev.ID] = PhaseStarting
		next.Generation++
		return next, []Effect{CallStart{ID: ev.ID}}

	case StartSucceeded:
		delete(next.Phases, ev.ID)
		return next, []Effect{ReloadList{}, NavigateDetail{ID: ev.ID}}

	case StartFailed:
		delete(next.Phases, ev.ID)
		return next, reject(ev.Err)

	case RefreshRequested:
		if s.Starting() > 0 {
			return s, reject(apperrors.ErrRefreshDeferred)
		}
		return s, []Effect{FetchList{Generation: s.Generation}}

	case ListLoaded:
		if ev.Generation != s.Generation || s.Starting() > 0 {
			return s, reject(apperrors.ErrRefreshDeferred)
		}
		next.Assignments = append([]Assignment(nil), ev.Assignments...)
		next.Loaded = true
		for id := range next.Phases {
			if _, ok := next.Find(id); !ok {
				delete(next.Phases, id)
			}
		}
		return next, nil
	}
	return s, nil
}

func (s LifecycleState) clone() LifecycleState {
	out := s
	out.Assignments = append([]Assignment(nil), s.Assignments...)
	out.Phases = make(map[string]Phase, len(s.Phases))
	for k, v := range s.Phases {
		out.Phases[k] = v
	}
	return out
}

func reject(err error) []Effect {
	return []Effect{Rejected{Err: err}}
}
