package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carepath/internal/modules/session/domain"
	sessionout "carepath/internal/modules/session/port/out"
	"carepath/internal/platform/clock"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/logging"
)

// SessionService resolves the bearer token for API calls. An environment
// token takes precedence over the credential file.
type SessionService struct {
	clock    clock.Clock
	store    sessionout.CredentialStore
	envToken string
	logger   *slog.Logger
}

func NewSessionService(clock clock.Clock, store sessionout.CredentialStore, envToken string, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SessionService{clock: clock, store: store, envToken: domain.StripBearer(envToken), logger: logger}
}

func (s *SessionService) Login(ctx context.Context, token string, expiresAt *time.Time) (domain.Session, error) {
	token = domain.StripBearer(token)
	if token == "" {
		return domain.Session{}, fmt.Errorf("%w: token is required", apperrors.ErrInvalidInput)
	}
	now := s.clock.Now()
	if expiresAt != nil && !expiresAt.After(now) {
		return domain.Session{}, fmt.Errorf("%w: expiry must be in the future", apperrors.ErrInvalidInput)
	}
	session := domain.Session{Token: token, Source: domain.SourceFile, CreatedAt: now, ExpiresAt: expiresAt}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.Session{}, err
	}
	s.logger.Info("session_event", "event", "login")
	return session, nil
}

func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("session_event", "event", "logout")
	return nil
}

// Current returns the active session. A stored session past its expiry
// yields apperrors.ErrSessionExpired.
func (s *SessionService) Current(ctx context.Context) (domain.Session, error) {
	if s.envToken != "" {
		return domain.Session{Token: s.envToken, Source: domain.SourceEnv}, nil
	}
	session, err := s.store.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Expired(s.clock.Now()) {
		return session, apperrors.ErrSessionExpired
	}
	return session, nil
}

// Token implements the API client's token source.
func (s *SessionService) Token(ctx context.Context) (string, error) {
	session, err := s.Current(ctx)
	if errors.Is(err, apperrors.ErrSessionExpired) {
		s.SessionExpired(ctx, err)
		return "", err
	}
	if err != nil {
		return "", err
	}
	return session.Token, nil
}

// SessionExpired drops stored credentials after the backend rejected them.
// An environment token cannot be cleared and is only logged.
func (s *SessionService) SessionExpired(ctx context.Context, cause error) {
	if s.envToken != "" {
		s.logger.Warn("session_event", "event", "session_expired", "source", string(domain.SourceEnv), "cause", cause)
		return
	}
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("session_event", "event", "clear_failed", "error", err)
		return
	}
	s.logger.Warn("session_event", "event", "session_expired", "source", string(domain.SourceFile), "cause", cause)
}
