package browse

import (
	"context"
	"errors"
	"sync"

	"popfitup-backend/internal/client"
	"popfitup-backend/internal/interfaces/dto"
)

// ErrLoginRequired is returned by Toggle when nobody is logged in.
var ErrLoginRequired = client.ErrLoginRequired

// FavoritesAPI is the remote side of the ledger. *client.Client implements it.
type FavoritesAPI interface {
	Favorites(ctx context.Context) ([]dto.PopupItem, error)
	AddFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error)
	RemoveFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error)
}

// Ledger is the set of listings the current identity has favorited. Local
// state only changes after the server acknowledges a toggle.
type Ledger struct {
	api FavoritesAPI

	toggleMu sync.Mutex

	mu     sync.Mutex
	authed bool
	// gen increments on every identity change; results issued under an
	// older generation are dropped.
	gen uint64
	ids map[uint64]bool
}

func NewLedger(api FavoritesAPI) *Ledger {
	return &Ledger{api: api, ids: make(map[uint64]bool)}
}

// SetIdentity records whether a user is logged in. The ledger is reloaded
// on the anonymous to authenticated transition and cleared on the reverse.
func (l *Ledger) SetIdentity(ctx context.Context, authenticated bool) error {
	l.mu.Lock()
	if l.authed == authenticated {
		l.mu.Unlock()
		return nil
	}
	l.authed = authenticated
	l.gen++
	l.ids = make(map[uint64]bool)
	gen := l.gen
	l.mu.Unlock()

	if !authenticated {
		return nil
	}
	return l.reload(ctx, gen)
}

// Reload refetches the ledger for the current identity.
func (l *Ledger) Reload(ctx context.Context) error {
	l.mu.Lock()
	authed, gen := l.authed, l.gen
	l.mu.Unlock()
	if !authed {
		return nil
	}
	return l.reload(ctx, gen)
}

func (l *Ledger) reload(ctx context.Context, gen uint64) error {
	items, err := l.api.Favorites(ctx)
	if err != nil {
		return err
	}
	ids := make(map[uint64]bool, len(items))
	for _, it := range items {
		ids[it.ID] = true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen == gen {
		l.ids = ids
	}
	return nil
}

// IsFavorite reports whether id is favorited.
func (l *Ledger) IsFavorite(id uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[id]
}

// IDs returns the favorited listing ids.
func (l *Ledger) IDs() []uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]uint64, 0, len(l.ids))
	for id := range l.ids {
		out = append(out, id)
	}
	return out
}

// Toggle flips id on the server and then locally, returning the new state.
// If the server call fails the local state is unchanged.
func (l *Ledger) Toggle(ctx context.Context, id uint64) (bool, error) {
	l.toggleMu.Lock()
	defer l.toggleMu.Unlock()

	l.mu.Lock()
	authed, gen, current := l.authed, l.gen, l.ids[id]
	l.mu.Unlock()
	if !authed {
		return false, ErrLoginRequired
	}

	var (
		res *dto.FavoriteResponse
		err error
	)
	if current {
		res, err = l.api.RemoveFavorite(ctx, id)
	} else {
		res, err = l.api.AddFavorite(ctx, id)
	}
	if err != nil {
		if errors.Is(err, client.ErrLoginRequired) {
			return current, ErrLoginRequired
		}
		return current, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		return current, nil
	}
	if res.Favorited {
		l.ids[id] = true
	} else {
		delete(l.ids, id)
	}
	return res.Favorited, nil
}
