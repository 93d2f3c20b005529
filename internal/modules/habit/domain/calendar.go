package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	GridWeeks = 6
	GridDays  = GridWeeks * 7
)

// YearMonth identifies a calendar month independent of time zone.
type YearMonth struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth accepts YYYY-MM and YYYY-MM-DD.
func ParseYearMonth(raw string) (YearMonth, error) {
	v := strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01", v); err == nil {
		return MonthOf(t), nil
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return MonthOf(t), nil
	}
	return YearMonth{}, fmt.Errorf("month %q must be YYYY-MM", raw)
}

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// First is midnight UTC on the first day of the month.
func (m YearMonth) First() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m YearMonth) Next() YearMonth {
	return MonthOf(m.First().AddDate(0, 1, 0))
}

func (m YearMonth) Prev() YearMonth {
	return MonthOf(m.First().AddDate(0, -1, 0))
}

func (m YearMonth) Days() int {
	return m.Next().First().AddDate(0, 0, -1).Day()
}

func (m YearMonth) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// ContainsKey reports whether the YYYY-MM-DD key falls in m.
func (m YearMonth) ContainsKey(date string) bool {
	return strings.HasPrefix(date, m.String()+"-")
}

type GridDay struct {
	Date           time.Time
	IsCurrentMonth bool
}

func (d GridDay) Key() string {
	return d.Date.Format(time.DateOnly)
}

// BuildMonthGrid lays m out as six Sunday-first weeks, padded with days of
// the adjacent months.
func BuildMonthGrid(m YearMonth) []GridDay {
	first := m.First()
	start := first.AddDate(0, 0, -int(first.Weekday()))
	grid := make([]GridDay, 0, GridDays)
	for i := 0; i < GridDays; i++ {
		d := start.AddDate(0, 0, i)
		grid = append(grid, GridDay{Date: d, IsCurrentMonth: m.Contains(d)})
	}
	return grid
}
