package dto

import "time"

type AssignmentOutput struct {
	ID            string
	ProtocolID    string
	Name          string
	Status        string
	DisplayStatus string
	DisplayColor  string
	CanStart      bool
	IsActive      bool
	Phase         string
	CurrentDay    int
	AdherenceRate float64
	Progress      float64
}

type AssignmentDetailOutput struct {
	AssignmentOutput
	Description      string
	DurationDays     int
	CoverImage       string
	Doctor           string
	BlockReason      string
	PlannedStartDate *time.Time
	PlannedEndDate   *time.Time
	ActualStartDate  *time.Time
	AvailableFrom    *time.Time
}

type StartInput struct {
	AssignmentID string
}

type StartOutput struct {
	AssignmentID string
	Status       string
	StartedAt    *time.Time
}
