package domain

import (
	"net/url"
	"strings"
)

// SearchFilter is the faceted search input. Empty and "all" values are
// wildcards; malformed category or date values are treated as wildcards too.
type SearchFilter struct {
	Location string `json:"region"`
	Category string `json:"category"`
	Date     string `json:"date"` // YYYY-MM-DD
	Keyword  string `json:"keyword"`
}

// Normalize trims values and folds wildcards and malformed values to "".
func (f SearchFilter) Normalize() SearchFilter {
	out := SearchFilter{
		Location: wildcard(f.Location),
		Keyword:  strings.TrimSpace(f.Keyword),
	}
	if c, ok := ParseCategory(wildcard(f.Category)); ok {
		out.Category = string(c)
	}
	if d := wildcard(f.Date); d != "" {
		if t, err := ParseDate(d); err == nil {
			out.Date = t.Format("2006-01-02")
		}
	}
	return out
}

// IsZero reports whether the normalized filter matches everything.
func (f SearchFilter) IsZero() bool {
	n := f.Normalize()
	return n == SearchFilter{}
}

// Values encodes the normalized filter as query parameters, omitting wildcards.
func (f SearchFilter) Values() url.Values {
	n := f.Normalize()
	v := url.Values{}
	if n.Location != "" {
		v.Set("region", n.Location)
	}
	if n.Category != "" {
		v.Set("category", n.Category)
	}
	if n.Date != "" {
		v.Set("date", n.Date)
	}
	if n.Keyword != "" {
		v.Set("keyword", n.Keyword)
	}
	return v
}

// Signature is the canonical serialization of the normalized filter. Two
// filters that select the same listings share a signature.
func (f SearchFilter) Signature() string {
	return f.Values().Encode()
}

// FilterFromValues reads region/category/date/keyword parameters.
func FilterFromValues(v url.Values) SearchFilter {
	return SearchFilter{
		Location: v.Get("region"),
		Category: v.Get("category"),
		Date:     v.Get("date"),
		Keyword:  v.Get("keyword"),
	}.Normalize()
}

func wildcard(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") || s == "전체" {
		return ""
	}
	return s
}
