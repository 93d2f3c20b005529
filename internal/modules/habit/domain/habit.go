package domain

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryWork     Category = "work"
)

func Categories() []Category {
	return []Category{CategoryPersonal, CategoryHealth, CategoryWork}
}

func (c Category) Validate() error {
	switch c {
	case CategoryPersonal, CategoryHealth, CategoryWork:
		return nil
	default:
		return fmt.Errorf("unsupported category %q", string(c))
	}
}

// ProgressEntry records one calendar day. Date is YYYY-MM-DD.
type ProgressEntry struct {
	Date      string
	IsChecked bool
}

// Habit holds at most one progress entry per date.
type Habit struct {
	ID       string
	Title    string
	Category Category
	Progress []ProgressEntry
}

// Draft is the user-editable part of a habit.
type Draft struct {
	Title    string
	Category Category
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return d.Category.Validate()
}

// ToggleResult is the server's authoritative answer to a toggle.
type ToggleResult struct {
	IsChecked bool
	IsUpdate  bool
}
