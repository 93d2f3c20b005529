package out

import (
	"context"

	"carepath/internal/modules/session/domain"
)

// CredentialStore persists the session token. Load returns
// apperrors.ErrNotAuthenticated when nothing is stored.
type CredentialStore interface {
	Save(ctx context.Context, session domain.Session) error
	Load(ctx context.Context) (domain.Session, error)
	Clear(ctx context.Context) error
}
