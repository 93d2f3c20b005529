package domain_test

import (
	"strings"
	"testing"
	"time"

	"carepath/internal/modules/protocol/domain"
)

func ptr(t time.Time) *time.Time { return &t }

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestResolveDisplayTable(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status domain.Status
		label  string
		color  domain.Color
	}{
		{domain.StatusPrescribed, "Not Started", domain.ColorBlue},
		{domain.StatusActive, "Active", domain.ColorGreen},
		{domain.StatusPaused, "Paused", domain.ColorAmber},
		{domain.StatusCompleted, "Completed", domain.ColorGreen},
		{domain.StatusAbandoned, "Abandoned", domain.ColorRed},
		{domain.Status("ARCHIVED"), "Unknown", domain.ColorGray},
		{domain.Status(""), "Unknown", domain.ColorGray},
	}
	for _, tc := range cases {
		got := domain.Resolve(domain.Assignment{Status: tc.status}, now)
		if got.DisplayStatus != tc.label || got.DisplayColor != tc.color {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.status, got.DisplayStatus, got.DisplayColor, tc.label, tc.color)
		}
		if got.IsActive != (tc.status == domain.StatusActive) {
			t.Fatalf("%s: unexpected IsActive %v", tc.status, got.IsActive)
		}
	}
}

func TestCanStartOnlyForPrescribedWithoutStartDate(t *testing.T) {
	t.Parallel()
	for _, status := range []domain.Status{domain.StatusActive, domain.StatusPaused, domain.StatusCompleted, domain.StatusAbandoned, "WHATEVER"} {
		a := domain.Assignment{ID: "rx", Status: status}
		if domain.Resolve(a, now).CanStart {
			t.Fatalf("status %s must never be startable", status)
		}
	}
	prescribed := domain.Assignment{ID: "rx", Status: domain.StatusPrescribed}
	if !domain.Resolve(prescribed, now).CanStart {
		t.Fatalf("prescribed without gate should be startable")
	}
	prescribed.ActualStartDate = ptr(now.AddDate(0, 0, -2))
	if domain.Resolve(prescribed, now).CanStart {
		t.Fatalf("prescribed with actual start date must not be startable")
	}
}

func TestAvailabilityGateIsMonotonicInTime(t *testing.T) {
	t.Parallel()
	gate := now.Add(48 * time.Hour)
	a := domain.Assignment{Status: domain.StatusPrescribed, AvailableFrom: ptr(gate)}

	if domain.Resolve(a, gate.Add(-time.Second)).CanStart {
		t.Fatalf("must not start before availableFrom")
	}
	if !domain.Resolve(a, gate).CanStart {
		t.Fatalf("must start exactly at availableFrom")
	}
	startable := false
	for step := -72; step <= 72; step++ {
		ok := domain.Resolve(a, gate.Add(time.Duration(step)*time.Hour)).CanStart
		if startable && !ok {
			t.Fatalf("canStart went back to false at step %d", step)
		}
		startable = startable || ok
	}
}

func TestBlockReasonDependsOnActualState(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		a    domain.Assignment
		want string
	}{
		{"startable", domain.Assignment{Status: domain.StatusPrescribed}, ""},
		{"active", domain.Assignment{Status: domain.StatusActive, ActualStartDate: ptr(now)}, "already active"},
		{"gated", domain.Assignment{Status: domain.StatusPrescribed, AvailableFrom: ptr(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))}, "not available until 2026-04-01"},
		{"started", domain.Assignment{Status: domain.StatusPrescribed, ActualStartDate: ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))}, "already started on 2026-03-01"},
		{"paused", domain.Assignment{Status: domain.StatusPaused}, "while paused"},
		{"unknown", domain.Assignment{Status: "ARCHIVED"}, "unknown status"},
	}
	for _, tc := range cases {
		got := domain.BlockReason(tc.a, now)
		if tc.want == "" {
			if got != "" {
				t.Fatalf("%s: expected empty reason, got %q", tc.name, got)
			}
			continue
		}
		if !strings.Contains(got, tc.want) {
			t.Fatalf("%s: expected reason containing %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestParseStatusNormalizes(t *testing.T) {
	t.Parallel()
	if domain.ParseStatus(" active ") != domain.StatusActive {
		t.Fatalf("expected case-insensitive parse")
	}
	if domain.ParseStatus("weird").Known() {
		t.Fatalf("unknown status must stay unknown")
	}
}
