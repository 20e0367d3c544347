package domain

import (
	"fmt"
	"time"
)

// MonthKey identifies a calendar month ("YYYY-MM").
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t (in t's location).
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthKey{Year: t.Year(), Month: t.Month()}, nil
}

func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// FirstDay is UTC midnight of the first day of the month.
func (m MonthKey) FirstDay() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay is UTC midnight of the last day of the month.
func (m MonthKey) LastDay() time.Time {
	return m.FirstDay().AddDate(0, 1, -1)
}

// Add returns the month n months away.
func (m MonthKey) Add(n int) MonthKey {
	return MonthOf(m.FirstDay().AddDate(0, n, 0))
}
