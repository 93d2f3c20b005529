package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carepath/internal/modules/habit/domain"
	"carepath/internal/modules/habit/dto"
	habitin "carepath/internal/modules/habit/port/in"
	"carepath/internal/modules/habit/service"
	apperrors "carepath/internal/platform/errors"
)

type Interactor struct {
	svc *service.ProgressService
}

func NewInteractor(svc *service.ProgressService) habitin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) ListHabits(ctx context.Context, month string) ([]dto.HabitOutput, error) {
	m, err := i.month(month)
	if err != nil {
		return nil, err
	}
	var habits []domain.Habit
	if m == i.svc.Month() {
		habits, err = i.svc.Habits(ctx)
	} else {
		habits, err = i.svc.Load(ctx, m)
	}
	if err != nil {
		return nil, err
	}
	today := i.svc.Today()
	out := make([]dto.HabitOutput, 0, len(habits))
	for _, h := range habits {
		out = append(out, i.toOutput(h, m, today))
	}
	return out, nil
}

func (i *Interactor) CreateHabit(ctx context.Context, input dto.HabitInput) (dto.HabitOutput, error) {
	h, err := i.svc.Create(ctx, domain.Draft{
		Title:    strings.TrimSpace(input.Title),
		Category: parseCategory(input.Category),
	})
	if err != nil {
		return dto.HabitOutput{}, err
	}
	return i.toOutput(h, i.svc.Month(), i.svc.Today()), nil
}

func (i *Interactor) UpdateHabit(ctx context.Context, input dto.UpdateInput) (dto.HabitOutput, error) {
	if strings.TrimSpace(input.ID) == "" {
		return dto.HabitOutput{}, fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	current, err := i.svc.Get(ctx, input.ID)
	if err != nil {
		return dto.HabitOutput{}, err
	}
	draft := domain.Draft{Title: current.Title, Category: current.Category}
	if v := strings.TrimSpace(input.Title); v != "" {
		draft.Title = v
	}
	if v := strings.TrimSpace(input.Category); v != "" {
		draft.Category = parseCategory(v)
	}
	h, err := i.svc.Update(ctx, input.ID, draft)
	if err != nil {
		return dto.HabitOutput{}, err
	}
	return i.toOutput(h, i.svc.Month(), i.svc.Today()), nil
}

func (i *Interactor) DeleteHabit(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	return i.svc.Delete(ctx, id)
}

func (i *Interactor) Toggle(ctx context.Context, input dto.ToggleInput) (dto.ToggleOutput, error) {
	if strings.TrimSpace(input.HabitID) == "" {
		return dto.ToggleOutput{}, fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	date, err := i.date(input.Date)
	if err != nil {
		return dto.ToggleOutput{}, err
	}
	_, result, err := i.svc.Toggle(ctx, input.HabitID, date)
	if err != nil {
		return dto.ToggleOutput{}, err
	}
	return dto.ToggleOutput{HabitID: input.HabitID, Date: date, IsChecked: result.IsChecked, IsUpdate: result.IsUpdate}, nil
}

func (i *Interactor) Stats(ctx context.Context, date string) (dto.StatsOutput, error) {
	day, err := i.date(date)
	if err != nil {
		return dto.StatsOutput{}, err
	}
	st, err := i.svc.Stats(ctx, day)
	if err != nil {
		return dto.StatsOutput{}, err
	}
	return dto.StatsOutput{Date: day, Total: st.Total, Completed: st.Completed, CompletionRate: st.CompletionRate}, nil
}

func (i *Interactor) Calendar(ctx context.Context, habitID, month string) (dto.CalendarOutput, error) {
	if strings.TrimSpace(habitID) == "" {
		return dto.CalendarOutput{}, fmt.Errorf("%w: habit id is required", apperrors.ErrInvalidInput)
	}
	m, err := i.month(month)
	if err != nil {
		return dto.CalendarOutput{}, err
	}
	if m != i.svc.Month() {
		if _, err := i.svc.Load(ctx, m); err != nil {
			return dto.CalendarOutput{}, err
		}
	}
	h, err := i.svc.Get(ctx, habitID)
	if err != nil {
		return dto.CalendarOutput{}, err
	}
	return buildCalendar(h, m, i.svc.Today()), nil
}

// buildCalendar projects h onto the month grid of m.
func buildCalendar(h domain.Habit, m domain.YearMonth, today string) dto.CalendarOutput {
	grid := domain.BuildMonthGrid(m)
	days := make([]dto.CalendarDay, 0, len(grid))
	for _, cell := range grid {
		key := cell.Key()
		days = append(days, dto.CalendarDay{
			Date:           key,
			Day:            cell.Date.Day(),
			IsCurrentMonth: cell.IsCurrentMonth,
			IsToday:        key == today,
			IsChecked:      domain.IsCompletedOn(h, key),
		})
	}
	return dto.CalendarOutput{
		Month:         m.String(),
		HabitID:       h.ID,
		HabitTitle:    h.Title,
		CompletedDays: domain.CompletedDays(h, m),
		Days:          days,
	}
}

func (i *Interactor) month(raw string) (domain.YearMonth, error) {
	if strings.TrimSpace(raw) == "" {
		return i.svc.Month(), nil
	}
	m, err := domain.ParseYearMonth(raw)
	if err != nil {
		return domain.YearMonth{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return m, nil
}

func (i *Interactor) date(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return i.svc.Today(), nil
	}
	if _, err := time.Parse(time.DateOnly, v); err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", apperrors.ErrInvalidInput, raw)
	}
	return v, nil
}

func (i *Interactor) toOutput(h domain.Habit, m domain.YearMonth, today string) dto.HabitOutput {
	progress := make([]dto.ProgressEntry, 0, len(h.Progress))
	for _, e := range h.Progress {
		progress = append(progress, dto.ProgressEntry{Date: e.Date, IsChecked: e.IsChecked})
	}
	return dto.HabitOutput{
		ID:             h.ID,
		Title:          h.Title,
		Category:       string(h.Category),
		Progress:       progress,
		CompletedToday: domain.IsCompletedOn(h, today),
		CompletedDays:  domain.CompletedDays(h, m),
		InFlight:       i.svc.InFlight(h.ID),
	}
}

func parseCategory(raw string) domain.Category {
	return domain.Category(strings.ToLower(strings.TrimSpace(raw)))
}
