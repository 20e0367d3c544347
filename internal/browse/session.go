package browse

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/interfaces/dto"
)

// CatalogAPI is the read side of the API a Session browses. *client.Client
// implements it.
type CatalogAPI interface {
	Home(ctx context.Context) (*dto.HomeResponse, error)
	Monthly(ctx context.Context, month domain.MonthKey) ([]dto.PopupItem, error)
	Search(ctx context.Context, filter domain.SearchFilter, page, pageSize int) (*dto.SearchResponse, error)
}

// Page is a cached result. Latest and Popular are only set for the home
// bucket loaded by the initial home call.
type Page struct {
	Items   []dto.PopupItem
	Total   int64
	Latest  []dto.PopupItem
	Popular []dto.PopupItem
}

// Phase is what the catalog view should render.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseResults
	// PhaseNoResults is a completed fetch with zero items.
	PhaseNoResults
	PhaseFailed
)

func (p Phase) String() string {
	return [...]string{"idle", "loading", "results", "no_results", "failed"}[p]
}

// Session drives a result cache from the browse state.
type Session struct {
	api      CatalogAPI
	cache    *Cache[Page]
	pageSize int
	now      func() time.Time

	mu          sync.Mutex
	state       State
	latest      []dto.PopupItem
	popular     []dto.PopupItem
	highlighted bool
}

// NewSession derives the initial state from q. pageSize 0 uses the server
// default; now nil uses time.Now.
func NewSession(api CatalogAPI, q url.Values, pageSize int, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{api: api, pageSize: pageSize, now: now}
	s.cache = NewCache(s.fetch)
	s.state = FromQuery(q, now())
	return s
}

func (s *Session) fetch(ctx context.Context, k Key) (Page, error) {
	switch k := k.(type) {
	case HomeMonth:
		if k.Month == domain.MonthOf(s.now()) {
			home, err := s.api.Home(ctx)
			if err != nil {
				return Page{}, err
			}
			s.mu.Lock()
			s.latest, s.popular, s.highlighted = home.Latest, home.Popular, true
			s.mu.Unlock()

			// The server picks the current month in its own time zone.
			if m, err := domain.ParseMonthKey(home.Month); err == nil && m == k.Month {
				return Page{
					Items:   home.Monthly,
					Total:   int64(len(home.Monthly)),
					Latest:  home.Latest,
					Popular: home.Popular,
				}, nil
			}
		}
		items, err := s.api.Monthly(ctx, k.Month)
		if err != nil {
			return Page{}, err
		}
		return Page{Items: items, Total: int64(len(items))}, nil
	case SearchPage:
		q, err := url.ParseQuery(k.Signature)
		if err != nil {
			return Page{}, fmt.Errorf("bad search signature %q: %w", k.Signature, err)
		}
		res, err := s.api.Search(ctx, domain.FilterFromValues(q), k.Page, s.pageSize)
		if err != nil {
			return Page{}, err
		}
		return Page{Items: res.Items, Total: res.Total}, nil
	}
	return Page{}, fmt.Errorf("unknown cache key %T", k)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load requests the results of the current state.
func (s *Session) Load(ctx context.Context) (Page, error) {
	return s.cache.Request(ctx, s.State().Key())
}

// Navigate moves to next and requests its results.
func (s *Session) Navigate(ctx context.Context, next State) (Page, error) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
	return s.cache.Request(ctx, next.Key())
}

func (s *Session) SubmitFilter(ctx context.Context, f domain.SearchFilter) (Page, error) {
	return s.Navigate(ctx, s.State().SubmitFilter(f))
}

func (s *Session) SetMonth(ctx context.Context, m domain.MonthKey) (Page, error) {
	return s.Navigate(ctx, s.State().SetMonth(m))
}

func (s *Session) SetPage(ctx context.Context, p int) (Page, error) {
	return s.Navigate(ctx, s.State().SetPage(p))
}

func (s *Session) Reset(ctx context.Context) (Page, error) {
	return s.Navigate(ctx, s.State().Reset())
}

// View is the displayed result.
func (s *Session) View() View[Page] {
	return s.cache.View()
}

// Phase classifies the view for rendering. A search with zero matches is
// PhaseNoResults, distinct from loading and from a failed fetch.
func (s *Session) Phase() Phase {
	v := s.cache.View()
	switch v.Status {
	case StatusLoading:
		return PhaseLoading
	case StatusFailed:
		return PhaseFailed
	case StatusReady:
		if len(v.Value.Items) == 0 {
			return PhaseNoResults
		}
		return PhaseResults
	}
	return PhaseIdle
}

// Highlights returns the latest and popular buckets once the initial home
// call has completed.
func (s *Session) Highlights() (latest, popular []dto.PopupItem, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.popular, s.highlighted
}
