package in

import (
	"context"

	"carepath/internal/modules/habit/dto"
)

type Usecase interface {
	// ListHabits loads month (YYYY-MM, empty for the current month).
	ListHabits(ctx context.Context, month string) ([]dto.HabitOutput, error)
	CreateHabit(ctx context.Context, input dto.HabitInput) (dto.HabitOutput, error)
	UpdateHabit(ctx context.Context, input dto.UpdateInput) (dto.HabitOutput, error)
	DeleteHabit(ctx context.Context, id string) error
	Toggle(ctx context.Context, input dto.ToggleInput) (dto.ToggleOutput, error)
	Stats(ctx context.Context, date string) (dto.StatsOutput, error)
	Calendar(ctx context.Context, habitID, month string) (dto.CalendarOutput, error)
}
