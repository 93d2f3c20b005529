package out

import (
	"context"

	"carepath/internal/modules/protocol/domain"
)

type PrescriptionGateway interface {
	List(ctx context.Context) ([]domain.Assignment, error)
	// Start returns *apperrors.AlreadyStartedError when the backend rejects
	// the request because the assignment already has a start date.
	Start(ctx context.Context, assignmentID string) error
}

// Navigator moves the presentation layer to the protocol detail view.
type Navigator interface {
	ShowProtocol(ctx context.Context, assignment domain.Assignment)
}

type ExpiryHandler interface {
	SessionExpired(ctx context.Context, cause error)
}
