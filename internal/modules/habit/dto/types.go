package dto

type ProgressEntry struct {
	Date      string
	IsChecked bool
}

type HabitOutput struct {
	ID             string
	Title          string
	Category       string
	Progress       []ProgressEntry
	CompletedToday bool
	CompletedDays  int
	InFlight       bool
}

type HabitInput struct {
	Title    string
	Category string
}

type UpdateInput struct {
	ID string
	// Empty fields keep the current value.
	Title    string
	Category string
}

type ToggleInput struct {
	HabitID string
	// Date is YYYY-MM-DD; empty means today.
	Date string
}

type ToggleOutput struct {
	HabitID   string
	Date      string
	IsChecked bool
	IsUpdate  bool
}

type StatsOutput struct {
	Date           string
	Total          int
	Completed      int
	CompletionRate int
}

type CalendarDay struct {
	Date           string
	Day            int
	IsCurrentMonth bool
	IsToday        bool
	IsChecked      bool
}

type CalendarOutput struct {
	Month         string
	HabitID       string
	HabitTitle    string
	CompletedDays int
	Days          []CalendarDay
}
