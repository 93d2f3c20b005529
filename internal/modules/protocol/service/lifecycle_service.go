package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"carepath/internal/modules/protocol/domain"
	protocolout "carepath/internal/modules/protocol/port/out"
	"carepath/internal/platform/clock"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/logging"
)

// LifecycleService owns the in-memory assignment cache and drives the start
// transition. Remote calls run outside the lock.
type LifecycleService struct {
	clock     clock.Clock
	gateway   protocolout.PrescriptionGateway
	navigator protocolout.Navigator
	expiry    protocolout.ExpiryHandler
	logger    *slog.Logger

	mu    sync.Mutex
	state domain.LifecycleState
}

func NewLifecycleService(clock clock.Clock, gateway protocolout.PrescriptionGateway, navigator protocolout.Navigator, expiry protocolout.ExpiryHandler, logger *slog.Logger) *LifecycleService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &LifecycleService{clock: clock, gateway: gateway, navigator: navigator, expiry: expiry, logger: logger}
}

func (s *LifecycleService) Now() time.Time {
	return s.clock.Now()
}

func (s *LifecycleService) dispatch(ev domain.Event) []domain.Effect {
	s.mu.Lock()
	defer s.mu.Unlock()
	var effects []domain.Effect
	s.state, effects = domain.Reduce(s.state, ev)
	return effects
}

func (s *LifecycleService) snapshot() domain.LifecycleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Assignments returns the cached list, loading it on first use.
func (s *LifecycleService) Assignments(ctx context.Context) ([]domain.Assignment, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return append([]domain.Assignment(nil), s.snapshot().Assignments...), nil
}

func (s *LifecycleService) Get(ctx context.Context, id string) (domain.Assignment, domain.Phase, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Assignment{}, domain.PhaseIdle, err
	}
	state := s.snapshot()
	a, ok := state.Find(id)
	if !ok {
		return domain.Assignment{}, domain.PhaseIdle, fmt.Errorf("assignment %s: %w", id, apperrors.ErrNotFound)
	}
	return a, state.Phase(id), nil
}

func (s *LifecycleService) Phase(id string) domain.Phase {
	return s.snapshot().Phase(id)
}

// Refresh replaces the cache with the server's list. It returns
// apperrors.ErrRefreshDeferred when a start is in flight or began while the
// list was being fetched; the cache is left untouched in that case.
func (s *LifecycleService) Refresh(ctx context.Context) ([]domain.Assignment, error) {
	effects := s.dispatch(domain.RefreshRequested{})
	if err := rejected(effects); err != nil {
		return nil, err
	}
	var generation uint64
	for _, e := range effects {
		if f, ok := e.(domain.FetchList); ok {
			generation = f.Generation
		}
	}
	list, err := s.gateway.List(ctx)
	if err != nil {
		return nil, s.forward(ctx, fmt.Errorf("load prescriptions: %w", err))
	}
	if err := rejected(s.dispatch(domain.ListLoaded{Assignments: list, Generation: generation})); err != nil {
		s.logger.Info("protocol_event", "event", "refresh_discarded", "reason", err)
		return nil, err
	}
	return append([]domain.Assignment(nil), s.snapshot().Assignments...), nil
}

// RequestStart runs the local guard and moves the assignment to pending
// confirmation. It never calls the network beyond an initial list load.
func (s *LifecycleService) RequestStart(ctx context.Context, id string) (domain.Assignment, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Assignment{}, err
	}
	if err := rejected(s.dispatch(domain.StartRequested{ID: id, Now: s.clock.Now()})); err != nil {
		return domain.Assignment{}, err
	}
	a, _ := s.snapshot().Find(id)
	s.logger.Debug("protocol_event", "event", "start_requested", "assignment_id", id)
	return a, nil
}

func (s *LifecycleService) CancelStart(id string) {
	s.dispatch(domain.StartCancelled{ID: id})
}

// ConfirmStart re-runs the local guard and sends the start request. On
// success the list is reloaded and the navigator is pointed at the assignment.
func (s *LifecycleService) ConfirmStart(ctx context.Context, id string) (domain.Assignment, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Assignment{}, err
	}
	effects := s.dispatch(domain.StartConfirmed{ID: id, Now: s.clock.Now()})
	if err := rejected(effects); err != nil {
		return domain.Assignment{}, err
	}

	if err := s.gateway.Start(ctx, id); err != nil {
		err = s.classify(ctx, id, err)
		s.dispatch(domain.StartFailed{ID: id, Err: err})
		s.logger.Warn("protocol_event", "event", "start_failed", "assignment_id", id, "error", err)
		return domain.Assignment{}, err
	}
	s.logger.Info("protocol_event", "event", "protocol_start_confirmed", "assignment_id", id)

	for _, effect := range s.dispatch(domain.StartSucceeded{ID: id}) {
		switch e := effect.(type) {
		case domain.ReloadList:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger.Warn("protocol_event", "event", "reload_after_start", "assignment_id", id, "error", err)
			}
		case domain.NavigateDetail:
			if s.navigator != nil {
				s.navigator.ShowProtocol(ctx, s.lookup(e.ID))
			}
		}
	}
	return s.lookup(id), nil
}

func (s *LifecycleService) classify(ctx context.Context, id string, err error) error {
	var started *apperrors.AlreadyStartedError
	switch {
	case errors.As(err, &started):
		if started.AssignmentID == "" {
			started.AssignmentID = id
		}
		return started
	case errors.Is(err, apperrors.ErrSessionExpired):
		return s.forward(ctx, err)
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrStartFailed, err)
	}
}

func (s *LifecycleService) forward(ctx context.Context, err error) error {
	if errors.Is(err, apperrors.ErrSessionExpired) && s.expiry != nil {
		s.expiry.SessionExpired(ctx, err)
	}
	return err
}

func (s *LifecycleService) lookup(id string) domain.Assignment {
	if a, ok := s.snapshot().Find(id); ok {
		return a
	}
	return domain.Assignment{ID: id}
}

func (s *LifecycleService) ensureLoaded(ctx context.Context) error {
	if s.snapshot().Loaded {
		return nil
	}
	_, err := s.Refresh(ctx)
	return err
}

func rejected(effects []domain.Effect) error {
	for _, e := range effects {
		if r, ok := e.(domain.Rejected); ok {
			return r.Err
		}
	}
	return nil
}
