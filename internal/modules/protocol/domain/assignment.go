package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPrescribed Status = "PRESCRIBED"
	StatusActive     Status = "ACTIVE"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusAbandoned  Status = "ABANDONED"
)

// ParseStatus normalizes a wire status. Unknown values are kept upper-cased so
// they still resolve to the "Unknown" display.
func ParseStatus(raw string) Status {
	return Status(strings.ToUpper(strings.TrimSpace(raw)))
}

func (s Status) Known() bool {
	switch s {
	case StatusPrescribed, StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return true
	default:
		return false
	}
}

// Started reports whether the status implies an actual start date.
func (s Status) Started() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusAbandoned:
		return true
	default:
		return false
	}
}

type Protocol struct {
	Name         string
	Description  string
	DurationDays int
	CoverImage   string
	Doctor       string
}

// Assignment is one patient-protocol pairing as last reported by the server.
type Assignment struct {
	ID               string
	ProtocolID       string
	Protocol         Protocol
	Status           Status
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
	ActualStartDate  *time.Time
	AvailableFrom    *time.Time
	CurrentDay       int
	AdherenceRate    float64
	Progress         float64
}

func (a Assignment) Title() string {
	if strings.TrimSpace(a.Protocol.Name) != "" {
		return a.Protocol.Name
	}
	return a.ProtocolID
}
