package main

import (
	"fmt"
	"strings"
	"time"

	habitdto "carepath/internal/modules/habit/dto"
	protocoldto "carepath/internal/modules/protocol/dto"
)

const dateLayout = "2006-01-02"

func assignmentLine(a protocoldto.AssignmentOutput) string {
	start := ""
	if a.CanStart {
		start = "\tstartable"
	}
	return fmt.Sprintf("%s\t%s\t%s\tday %d\t%.0f%%%s", a.ID, a.Name, a.DisplayStatus, a.CurrentDay, a.Progress, start)
}

func assignmentDetail(d protocoldto.AssignmentDetailOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\nprotocol: %s (%s)\nstatus: %s\n", d.ID, d.Name, d.ProtocolID, d.DisplayStatus)
	if d.Doctor != "" {
		fmt.Fprintf(&b, "doctor: %s\n", d.Doctor)
	}
	if d.DurationDays > 0 {
		fmt.Fprintf(&b, "duration: %d days\n", d.DurationDays)
	}
	if d.IsActive {
		fmt.Fprintf(&b, "day: %d\nadherence: %.0f%%\nprogress: %.0f%%\n", d.CurrentDay, d.AdherenceRate, d.Progress)
	}
	fmt.Fprintf(&b, "planned: %s to %s\n", day(d.PlannedStartDate), day(d.PlannedEndDate))
	if d.ActualStartDate != nil {
		fmt.Fprintf(&b, "started: %s\n", day(d.ActualStartDate))
	}
	if d.CanStart {
		b.WriteString("can start: yes\n")
	} else if d.BlockReason != "" {
		fmt.Fprintf(&b, "can start: no (%s)\n", d.BlockReason)
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", d.Description)
	}
	return b.String()
}

func habitLine(h habitdto.HabitOutput) string {
	mark := " "
	if h.CompletedToday {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s\t%s\t%s\t%d days", mark, h.ID, h.Title, h.Category, h.CompletedDays)
}

// renderCalendar draws the 6x7 grid. Checked days carry "*", today is
// bracketed, and days outside the month are dots.
func renderCalendar(cal habitdto.CalendarOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  (%d days)\n", cal.HabitTitle, cal.Month, cal.CompletedDays)
	b.WriteString(" Su   Mo   Tu   We   Th   Fr   Sa\n")
	for i, d := range cal.Days {
		b.WriteString(calendarCell(d))
		if i%7 == 6 {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func calendarCell(d habitdto.CalendarDay) string {
	if !d.IsCurrentMonth {
		return "  . "
	}
	mark := " "
	if d.IsChecked {
		mark = "*"
	}
	if d.IsToday {
		return fmt.Sprintf("[%2d%s", d.Day, mark)
	}
	return fmt.Sprintf(" %2d%s", d.Day, mark)
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

func expiryNote(t *time.Time) string {
	if t == nil {
		return ""
	}
	return "\nexpires: " + t.Format(time.RFC3339)
}
