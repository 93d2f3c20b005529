package in

import (
	"context"

	"carepath/internal/modules/habit/dto"
	habitin "carepath/internal/modules/habit/port/in"
)

type CLIHandler struct {
	usecase habitin.Usecase
}

func NewCLIHandler(usecase habitin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context, month string) ([]dto.HabitOutput, error) {
	return h.usecase.ListHabits(ctx, month)
}

func (h CLIHandler) Add(ctx context.Context, title, category string) (dto.HabitOutput, error) {
	return h.usecase.CreateHabit(ctx, dto.HabitInput{Title: title, Category: category})
}

func (h CLIHandler) Edit(ctx context.Context, id, title, category string) (dto.HabitOutput, error) {
	return h.usecase.UpdateHabit(ctx, dto.UpdateInput{ID: id, Title: title, Category: category})
}

func (h CLIHandler) Remove(ctx context.Context, id string) error {
	return h.usecase.DeleteHabit(ctx, id)
}

func (h CLIHandler) Toggle(ctx context.Context, id, date string) (dto.ToggleOutput, error) {
	return h.usecase.Toggle(ctx, dto.ToggleInput{HabitID: id, Date: date})
}

func (h CLIHandler) Stats(ctx context.Context, date string) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx, date)
}

func (h CLIHandler) Calendar(ctx context.Context, id, month string) (dto.CalendarOutput, error) {
	return h.usecase.Calendar(ctx, id, month)
}
