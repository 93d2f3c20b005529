package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"carepath/internal/modules/habit/domain"
	habitout "carepath/internal/modules/habit/port/out"
	"carepath/internal/platform/clock"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/logging"
)

// ProgressService owns the habit cache for the displayed month. Toggles are
// committed only after the server confirms them.
type ProgressService struct {
	clock   clock.Clock
	gateway habitout.HabitGateway
	expiry  habitout.ExpiryHandler
	logger  *slog.Logger

	mu    sync.Mutex
	state domain.ProgressState
}

func NewProgressService(clock clock.Clock, gateway habitout.HabitGateway, expiry habitout.ExpiryHandler, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &ProgressService{clock: clock, gateway: gateway, expiry: expiry, logger: logger}
}

func (s *ProgressService) Now() time.Time {
	return s.clock.Now()
}

func (s *ProgressService) Today() string {
	return clock.DayKey(s.clock.Now())
}

func (s *ProgressService) dispatch(ev domain.ProgressEvent) []domain.ProgressEffect {
	s.mu.Lock()
	defer s.mu.Unlock()
	var effects []domain.ProgressEffect
	s.state, effects = domain.ReduceProgress(s.state, ev)
	return effects
}

func (s *ProgressService) snapshot() domain.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Month is the month currently held in the cache, or the current month
// before the first load.
func (s *ProgressService) Month() domain.YearMonth {
	state := s.snapshot()
	if state.Loaded {
		return state.Month
	}
	return domain.MonthOf(s.clock.Now())
}

func (s *ProgressService) InFlight(habitID string) bool {
	return s.snapshot().Busy(habitID)
}

// Habits returns the cached habits, loading the current month on first use.
func (s *ProgressService) Habits(ctx context.Context) ([]domain.Habit, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]domain.Habit(nil), s.snapshot().Habits...), nil
}

func (s *ProgressService) Get(ctx context.Context, id string) (domain.Habit, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Habit{}, err
	}
	h, ok := s.snapshot().Find(id)
	if !ok {
		return domain.Habit{}, fmt.Errorf("habit %s: %w", id, apperrors.ErrNotFound)
	}
	return h, nil
}

// Load replaces the cache with month. It returns apperrors.ErrRefreshDeferred
// when a toggle is in flight or a mutation landed while the list was loading.
func (s *ProgressService) Load(ctx context.Context, month domain.YearMonth) ([]domain.Habit, error) {
	effects := s.dispatch(domain.HabitsRequested{Month: month})
	if err := rejected(effects); err != nil {
		return nil, err
	}
	var generation uint64
	for _, e := range effects {
		if f, ok := e.(domain.FetchHabits); ok {
			generation = f.Generation
		}
	}
	habits, err := s.gateway.List(ctx, month)
	if err != nil {
		return nil, s.wrap(ctx, apperrors.ErrHabitRequestFailed, fmt.Errorf("load habits: %w", err))
	}
	if err := rejected(s.dispatch(domain.HabitsLoaded{Habits: habits, Month: month, Generation: generation})); err != nil {
		s.logger.Info("habit_event", "event", "load_discarded", "month", month.String(), "reason", err)
		return nil, err
	}
	s.logger.Debug("habit_event", "event", "habits_loaded", "month", month.String(), "count", len(habits))
	return append([]domain.Habit(nil), s.snapshot().Habits...), nil
}

// Toggle asks the server to flip (habitID, date) and merges the value the
// server reports. Only one toggle per habit may be in flight.
func (s *ProgressService) Toggle(ctx context.Context, habitID, date string) (domain.Habit, domain.ToggleResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Habit{}, domain.ToggleResult{}, err
	}
	if err := rejected(s.dispatch(domain.ToggleRequested{HabitID: habitID, Date: date})); err != nil {
		return domain.Habit{}, domain.ToggleResult{}, err
	}

	result, err := s.gateway.Toggle(ctx, habitID, date)
	if err != nil {
		err = s.wrap(ctx, apperrors.ErrToggleFailed, err)
		s.dispatch(domain.ToggleFailed{HabitID: habitID, Err: err})
		s.logger.Warn("habit_event", "event", "toggle_failed", "habit_id", habitID, "date", date, "error", err)
		return domain.Habit{}, domain.ToggleResult{}, err
	}
	s.dispatch(domain.ToggleSucceeded{HabitID: habitID, Date: date, Result: result})
	s.logger.Info("habit_event", "event", "habit_toggled", "habit_id", habitID, "date", date,
		"is_checked", result.IsChecked, "is_update", result.IsUpdate)

	h, _ := s.snapshot().Find(habitID)
	return h, result, nil
}

func (s *ProgressService) Create(ctx context.Context, draft domain.Draft) (domain.Habit, error) {
	if err := draft.Validate(); err != nil {
		return domain.Habit{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Habit{}, err
	}
	h, err := s.gateway.Create(ctx, draft)
	if err != nil {
		return domain.Habit{}, s.wrap(ctx, apperrors.ErrHabitRequestFailed, fmt.Errorf("create habit: %w", err))
	}
	s.dispatch(domain.HabitSaved{Habit: h})
	s.logger.Info("habit_event", "event", "habit_created", "habit_id", h.ID, "category", string(h.Category))
	return h, nil
}

func (s *ProgressService) Update(ctx context.Context, id string, draft domain.Draft) (domain.Habit, error) {
	if err := draft.Validate(); err != nil {
		return domain.Habit{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return domain.Habit{}, err
	}
	h, err := s.gateway.Update(ctx, id, draft)
	if err != nil {
		return domain.Habit{}, s.wrap(ctx, apperrors.ErrHabitRequestFailed, fmt.Errorf("update habit: %w", err))
	}
	if h.ID == "" {
		h.ID = id
	}
	s.dispatch(domain.HabitSaved{Habit: h})
	s.logger.Info("habit_event", "event", "habit_updated", "habit_id", id)
	saved, _ := s.snapshot().Find(id)
	return saved, nil
}

// Delete removes the habit and its progress from the cache once the server
// confirms.
func (s *ProgressService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.gateway.Delete(ctx, id); err != nil {
		return s.wrap(ctx, apperrors.ErrHabitRequestFailed, fmt.Errorf("delete habit: %w", err))
	}
	s.dispatch(domain.HabitDeleted{ID: id})
	s.logger.Info("habit_event", "event", "habit_deleted", "habit_id", id)
	return nil
}

// Stats aggregates completion over the cached habits.
func (s *ProgressService) Stats(ctx context.Context, date string) (domain.DailyStats, error) {
	habits, err := s.Habits(ctx)
	if err != nil {
		return domain.DailyStats{}, err
	}
	return domain.Stats(habits, date), nil
}

// wrap tags err with kind unless it is a session expiry, which is forwarded
// to the expiry handler and returned as is.
func (s *ProgressService) wrap(ctx context.Context, kind, err error) error {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		if s.expiry != nil {
			s.expiry.SessionExpired(ctx, err)
		}
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

func (s *ProgressService) ensureLoaded(ctx context.Context) error {
	if s.snapshot().Loaded {
		return nil
	}
	_, err := s.Load(ctx, domain.MonthOf(s.clock.Now()))
	return err
}

func rejected(effects []domain.ProgressEffect) error {
	for _, e := range effects {
		if r, ok := e.(domain.ProgressRejected); ok {
			return r.Err
		}
	}
	return nil
}
