package domain

import (
	"fmt"
	"strings"
	"time"
)

type Color string

const (
	ColorBlue  Color = "blue"
	ColorGreen Color = "green"
	ColorAmber Color = "amber"
	ColorRed   Color = "red"
	ColorGray  Color = "gray"
)

// Availability is derived presentation state. It is recomputed from the
// assignment and the current time on every use and never stored.
type Availability struct {
	CanStart      bool
	IsActive      bool
	DisplayStatus string
	DisplayColor  Color
}

type display struct {
	label string
	color Color
}

var statusDisplay = map[Status]display{
	StatusPrescribed: {"Not Started", ColorBlue},
	StatusActive:     {"Active", ColorGreen},
	StatusPaused:     {"Paused", ColorAmber},
	StatusCompleted:  {"Completed", ColorGreen},
	StatusAbandoned:  {"Abandoned", ColorRed},
}

var unknownDisplay = display{"Unknown", ColorGray}

func Resolve(a Assignment, now time.Time) Availability {
	d, ok := statusDisplay[a.Status]
	if !ok {
		d = unknownDisplay
	}
	return Availability{
		CanStart:      canStart(a, now),
		IsActive:      a.Status == StatusActive,
		DisplayStatus: d.label,
		DisplayColor:  d.color,
	}
}

func canStart(a Assignment, now time.Time) bool {
	if a.Status != StatusPrescribed || a.ActualStartDate != nil {
		return false
	}
	return a.AvailableFrom == nil || !now.Before(*a.AvailableFrom)
}

// BlockReason explains why a start is not allowed right now. It returns ""
// when the assignment can be started.
func BlockReason(a Assignment, now time.Time) string {
	switch {
	case canStart(a, now):
		return ""
	case a.Status == StatusActive:
		return "protocol is already active"
	case a.Status == StatusPrescribed && a.ActualStartDate != nil:
		return "protocol was already started on " + a.ActualStartDate.Format(time.DateOnly)
	case a.Status == StatusPrescribed && a.AvailableFrom != nil:
		return "protocol is not available until " + a.AvailableFrom.Format(time.DateOnly)
	case !a.Status.Known():
		return fmt.Sprintf("protocol has an unknown status %q", string(a.Status))
	default:
		return "protocol cannot be started while " + strings.ToLower(string(a.Status))
	}
}
