package browse

import (
	"net/url"
	"strconv"
	"time"

	"popfitup-backend/internal/domain"
)

// Mode is the page the catalog is showing.
type Mode int

const (
	ModeHome Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "home"
}

// State is the browse state derived from URL parameters. Filter is always
// normalized. Month is used in home mode, Page in search mode.
type State struct {
	Mode   Mode
	Filter domain.SearchFilter
	Page   int
	Month  domain.MonthKey
}

// FromQuery derives the state from query parameters. Search mode is
// selected by mode=search or by any non-wildcard filter value; a malformed
// month falls back to the month of now.
func FromQuery(q url.Values, now time.Time) State {
	s := State{
		Filter: domain.FilterFromValues(q),
		Page:   1,
		Month:  domain.MonthOf(now),
	}
	if m, err := domain.ParseMonthKey(q.Get("month")); err == nil {
		s.Month = m
	}
	if q.Get("mode") == ModeSearch.String() || !s.Filter.IsZero() {
		s.Mode = ModeSearch
		if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 1 {
			s.Page = p
		}
	}
	return s
}

// Key is the cache key of the results this state shows.
func (s State) Key() Key {
	if s.Mode == ModeSearch {
		return NewSearchPage(s.Filter, s.Page)
	}
	return HomeMonth{Month: s.Month}
}

// SubmitFilter enters search mode with f on page 1.
func (s State) SubmitFilter(f domain.SearchFilter) State {
	s.Mode = ModeSearch
	s.Filter = f.Normalize()
	s.Page = 1
	return s
}

// SetMonth changes the home month. It never starts a search.
func (s State) SetMonth(m domain.MonthKey) State {
	s.Month = m
	return s
}

// SetPage moves to page p of the current search, keeping the filter. It is
// a no-op in home mode.
func (s State) SetPage(p int) State {
	if s.Mode != ModeSearch {
		return s
	}
	if p < 1 {
		p = 1
	}
	s.Page = p
	return s
}

// Reset returns to home mode with wildcard filters.
func (s State) Reset() State {
	s.Mode = ModeHome
	s.Filter = domain.SearchFilter{}
	s.Page = 1
	return s
}

// Query encodes the state back to URL parameters. FromQuery(s.Query())
// yields s again.
func (s State) Query() url.Values {
	if s.Mode == ModeHome {
		return url.Values{"month": {s.Month.String()}}
	}
	q := s.Filter.Values()
	q.Set("mode", ModeSearch.String())
	q.Set("month", s.Month.String())
	if s.Page > 1 {
		q.Set("page", strconv.Itoa(s.Page))
	}
	return q
}
