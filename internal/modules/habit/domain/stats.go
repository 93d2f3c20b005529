package domain

import "math"

type DailyStats struct {
	Total          int
	Completed      int
	CompletionRate int
}

// Stats counts how many habits are completed on date. CompletionRate is a
// rounded percentage and 0 when there are no habits.
func Stats(habits []Habit, date string) DailyStats {
	s := DailyStats{Total: len(habits)}
	for _, h := range habits {
		if IsCompletedOn(h, date) {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(100 * float64(s.Completed) / float64(s.Total)))
	}
	return s
}
