package domain

// IsCompletedOn reports whether habit has a checked entry for date. A missing
// entry reads as not completed.
func IsCompletedOn(h Habit, date string) bool {
	for _, e := range h.Progress {
		if e.Date == date {
			return e.IsChecked
		}
	}
	return false
}

// Merge returns a copy of h with the entry for date set to checked, replacing
// an existing entry or appending a new one. h is not modified.
func Merge(h Habit, date string, checked bool) Habit {
	out := h
	out.Progress = make([]ProgressEntry, 0, len(h.Progress)+1)
	replaced := false
	for _, e := range h.Progress {
		if e.Date == date {
			if replaced {
				continue
			}
			e.IsChecked = checked
			replaced = true
		}
		out.Progress = append(out.Progress, e)
	}
	if !replaced {
		out.Progress = append(out.Progress, ProgressEntry{Date: date, IsChecked: checked})
	}
	return out
}

// CompletedDays counts checked days of h that fall inside m.
func CompletedDays(h Habit, m YearMonth) int {
	seen := make(map[string]struct{}, len(h.Progress))
	n := 0
	for _, e := range h.Progress {
		if !e.IsChecked || !m.ContainsKey(e.Date) {
			continue
		}
		if _, dup := seen[e.Date]; dup {
			continue
		}
		seen[e.Date] = struct{}{}
		n++
	}
	return n
}
