package out

import (
	"context"

	"carepath/internal/modules/habit/domain"
)

type HabitGateway interface {
	List(ctx context.Context, month domain.YearMonth) ([]domain.Habit, error)
	Create(ctx context.Context, draft domain.Draft) (domain.Habit, error)
	Update(ctx context.Context, id string, draft domain.Draft) (domain.Habit, error)
	Delete(ctx context.Context, id string) error
	// Toggle flips the entry for (habitID, date) server-side and reports the
	// resulting state.
	Toggle(ctx context.Context, habitID, date string) (domain.ToggleResult, error)
}

type ExpiryHandler interface {
	SessionExpired(ctx context.Context, cause error)
}
