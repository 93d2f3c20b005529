package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"carepath/internal/modules/session/domain"
	sessiondto "carepath/internal/modules/session/dto"
	sessionin "carepath/internal/modules/session/port/in"
	"carepath/internal/modules/session/service"
	apperrors "carepath/internal/platform/errors"
)

type Interactor struct {
	svc *service.SessionService
}

func NewInteractor(svc *service.SessionService) sessionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Login(ctx context.Context, input sessiondto.LoginInput) (sessiondto.StatusOutput, error) {
	var expiresAt *time.Time
	if v := strings.TrimSpace(input.ExpiresAt); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return sessiondto.StatusOutput{}, fmt.Errorf("%w: expires-at %q must be RFC 3339", apperrors.ErrInvalidInput, input.ExpiresAt)
		}
		expiresAt = &t
	}
	session, err := i.svc.Login(ctx, input.Token, expiresAt)
	if err != nil {
		return sessiondto.StatusOutput{}, err
	}
	return toStatus(session, false), nil
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.svc.Logout(ctx)
}

// Status reports a logged-out state as a value, not an error.
func (i *Interactor) Status(ctx context.Context) (sessiondto.StatusOutput, error) {
	session, err := i.svc.Current(ctx)
	switch {
	case err == nil:
		return toStatus(session, false), nil
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		return sessiondto.StatusOutput{}, nil
	case errors.Is(err, apperrors.ErrSessionExpired):
		return toStatus(session, true), nil
	default:
		return sessiondto.StatusOutput{}, err
	}
}

func toStatus(s domain.Session, expired bool) sessiondto.StatusOutput {
	return sessiondto.StatusOutput{
		LoggedIn:  !expired,
		Source:    string(s.Source),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Expired:   expired,
	}
}
