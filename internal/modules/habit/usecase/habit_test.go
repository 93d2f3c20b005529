package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"carepath/internal/modules/habit/domain"
	"carepath/internal/modules/habit/dto"
	habitin "carepath/internal/modules/habit/port/in"
	"carepath/internal/modules/habit/service"
	"carepath/internal/modules/habit/usecase"
	"carepath/internal/platform/clock"
	apperrors "carepath/internal/platform/errors"
)

type stubGateway struct {
	habits []domain.Habit
	months []domain.YearMonth
}

func (g *stubGateway) List(_ context.Context, m domain.YearMonth) ([]domain.Habit, error) {
	g.months = append(g.months, m)
	return g.habits, nil
}

func (g *stubGateway) Create(_ context.Context, d domain.Draft) (domain.Habit, error) {
	return domain.Habit{ID: "new", Title: d.Title, Category: d.Category}, nil
}

func (g *stubGateway) Update(_ context.Context, id string, d domain.Draft) (domain.Habit, error) {
	return domain.Habit{ID: id, Title: d.Title, Category: d.Category}, nil
}

func (g *stubGateway) Delete(context.Context, string) error { return nil }

func (g *stubGateway) Toggle(context.Context, string, string) (domain.ToggleResult, error) {
	return domain.ToggleResult{IsChecked: true}, nil
}

func newInteractor() (*stubGateway, habitin.Usecase) {
	gw := &stubGateway{habits: []domain.Habit{
		{ID: "a", Title: "Walk", Category: domain.CategoryHealth, Progress: []domain.ProgressEntry{
			{Date: "2026-04-01", IsChecked: true},
			{Date: "2026-04-15", IsChecked: true},
		}},
		{ID: "b", Title: "Read", Category: domain.CategoryPersonal, Progress: []domain.ProgressEntry{}},
	}}
	now := time.Date(2026, 4, 15, 20, 0, 0, 0, time.UTC)
	svc := service.NewProgressService(clock.Fixed(now), gw, nil, nil)
	return gw, usecase.NewInteractor(svc)
}

func TestCalendarProjectsHabitOntoGrid(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor()
	cal, err := uc.Calendar(context.Background(), "a", "")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if cal.Month != "2026-04" || len(cal.Days) != domain.GridDays || cal.CompletedDays != 2 {
		t.Fatalf("unexpected calendar header %+v", cal)
	}
	var checked, today int
	for _, d := range cal.Days {
		if d.IsChecked {
			checked++
		}
		if d.IsToday {
			today++
			if d.Date != "2026-04-15" || !d.IsChecked {
				t.Fatalf("unexpected today cell %+v", d)
			}
		}
	}
	if checked != 2 || today != 1 {
		t.Fatalf("expected 2 checked cells and 1 today cell, got %d and %d", checked, today)
	}
}

func TestListAndStatsDefaultToToday(t *testing.T) {
	t.Parallel()
	gw, uc := newInteractor()
	habits, err := uc.ListHabits(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !habits[0].CompletedToday || habits[1].CompletedToday {
		t.Fatalf("unexpected completion flags %+v", habits)
	}
	st, err := uc.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Date != "2026-04-15" || st.CompletionRate != 50 {
		t.Fatalf("unexpected stats %+v", st)
	}
	if _, err := uc.ListHabits(context.Background(), "2026-03"); err != nil {
		t.Fatalf("list march: %v", err)
	}
	if len(gw.months) != 2 || gw.months[1].String() != "2026-03" {
		t.Fatalf("expected march to be loaded, got %v", gw.months)
	}
}

func TestInputValidation(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor()
	ctx := context.Background()
	cases := map[string]error{}
	_, cases["bad date"] = uc.Toggle(ctx, dto.ToggleInput{HabitID: "a", Date: "15/04/2026"})
	_, cases["missing id"] = uc.Toggle(ctx, dto.ToggleInput{})
	_, cases["bad month"] = uc.ListHabits(ctx, "April")
	_, cases["bad category"] = uc.CreateHabit(ctx, dto.HabitInput{Title: "Run", Category: "sport"})
	_, cases["bad update"] = uc.UpdateHabit(ctx, dto.UpdateInput{ID: "a", Category: "sport"})
	for name, err := range cases {
		if !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	t.Parallel()
	_, uc := newInteractor()
	out, err := uc.UpdateHabit(context.Background(), dto.UpdateInput{ID: "a", Title: "Walk 5k"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Title != "Walk 5k" || out.Category != string(domain.CategoryHealth) || out.CompletedDays != 2 {
		t.Fatalf("unexpected update output %+v", out)
	}
}
