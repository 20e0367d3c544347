// Package browse is the client-side half of the catalog: a keyed result
// cache with a display pointer, the home/search state machine derived from
// URL parameters, and the favorites ledger of the current identity.
package browse

import (
	"strconv"

	"popfitup-backend/internal/domain"
)

// Key identifies a cached result. The implementations are HomeMonth and
// SearchPage; both are comparable and used directly as map keys.
type Key interface {
	flightKey() string
}

// HomeMonth is the monthly home bucket of Month.
type HomeMonth struct {
	Month domain.MonthKey
}

func (k HomeMonth) flightKey() string {
	return "home|" + k.Month.String()
}

// SearchPage is one page of a search. Signature is the filter signature.
type SearchPage struct {
	Signature string
	Page      int
}

// NewSearchPage keys page of the results of f.
func NewSearchPage(f domain.SearchFilter, page int) SearchPage {
	if page < 1 {
		page = 1
	}
	return SearchPage{Signature: f.Signature(), Page: page}
}

func (k SearchPage) flightKey() string {
	// signature last so it cannot bleed into the page number
	return "search|" + strconv.Itoa(k.Page) + "|" + k.Signature
}
