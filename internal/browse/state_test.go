package browse

import (
	"net/url"
	"testing"
	"time"

	"popfitup-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)

func TestFromQuery(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  State
	}{
		{
			name:  "empty is home of current month",
			query: "",
			want:  State{Mode: ModeHome, Page: 1, Month: domain.MonthOf(now)},
		},
		{
			name:  "wildcards stay home",
			query: "region=all&category=all&date=",
			want:  State{Mode: ModeHome, Page: 1, Month: domain.MonthOf(now)},
		},
		{
			name:  "month param",
			query: "month=2025-12&page=3",
			want:  State{Mode: ModeHome, Page: 1, Month: domain.MonthKey{Year: 2025, Month: time.December}},
		},
		{
			name:  "bad month falls back",
			query: "month=2025-13",
			want:  State{Mode: ModeHome, Page: 1, Month: domain.MonthOf(now)},
		},
		{
			name:  "filter enters search",
			query: "category=food&page=2",
			want: State{
				Mode:   ModeSearch,
				Filter: domain.SearchFilter{Category: "food"},
				Page:   2,
				Month:  domain.MonthOf(now),
			},
		},
		{
			name:  "explicit search mode with wildcards",
			query: "mode=search&page=0",
			want:  State{Mode: ModeSearch, Page: 1, Month: domain.MonthOf(now)},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, FromQuery(q, now))
		})
	}
}

func TestState_Transitions(t *testing.T) {
	home := FromQuery(url.Values{}, now)

	s := home.SubmitFilter(domain.SearchFilter{Location: " 서울 ", Category: "fashion"})
	assert.Equal(t, ModeSearch, s.Mode)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, "서울", s.Filter.Location)

	s = s.SetPage(3)
	assert.Equal(t, 3, s.Page)
	assert.Equal(t, "fashion", s.Filter.Category)

	s = s.SubmitFilter(domain.SearchFilter{Category: "food"})
	assert.Equal(t, 1, s.Page)

	s = s.Reset()
	assert.Equal(t, ModeHome, s.Mode)
	assert.True(t, s.Filter.IsZero())

	// month changes never leave home mode
	m := home.SetMonth(domain.MonthKey{Year: 2026, Month: time.January})
	assert.Equal(t, ModeHome, m.Mode)
	assert.Equal(t, HomeMonth{Month: domain.MonthKey{Year: 2026, Month: time.January}}, m.Key())
	assert.Equal(t, m, m.SetPage(4))
}

func TestState_QueryRoundTrip(t *testing.T) {
	states := []State{
		FromQuery(url.Values{"month": {"2025-10"}}, now),
		FromQuery(url.Values{}, now).SubmitFilter(domain.SearchFilter{Date: "2025-11-20", Keyword: "bear"}).SetPage(2),
		FromQuery(url.Values{"mode": {"search"}}, now),
	}
	for _, s := range states {
		assert.Equal(t, s, FromQuery(s.Query(), now))
	}
}

func TestState_WildcardFilterSharesKey(t *testing.T) {
	a := FromQuery(url.Values{"mode": {"search"}}, now)
	b := a.SubmitFilter(domain.SearchFilter{Location: "all", Category: "all", Date: ""})
	assert.Equal(t, a.Key(), b.Key())
}
