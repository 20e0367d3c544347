package browse

import (
	"context"
	"errors"
	"sort"
	"testing"

	"popfitup-backend/internal/interfaces/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFavorites struct {
	server    map[uint64]bool
	failNext  error
	loadCalls int
}

func newFakeFavorites(ids ...uint64) *fakeFavorites {
	f := &fakeFavorites{server: map[uint64]bool{}}
	for _, id := range ids {
		f.server[id] = true
	}
	return f
}

func (f *fakeFavorites) Favorites(ctx context.Context) ([]dto.PopupItem, error) {
	f.loadCalls++
	var out []dto.PopupItem
	for id := range f.server {
		out = append(out, dto.PopupItem{ID: id})
	}
	return out, nil
}

func (f *fakeFavorites) AddFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error) {
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	f.server[id] = true
	return &dto.FavoriteResponse{PopupID: id, Favorited: true, FavoriteCount: 1}, nil
}

func (f *fakeFavorites) RemoveFavorite(ctx context.Context, id uint64) (*dto.FavoriteResponse, error) {
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	delete(f.server, id)
	return &dto.FavoriteResponse{PopupID: id, Favorited: false}, nil
}

func (f *fakeFavorites) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func TestLedger_AnonymousToggleNeedsLogin(t *testing.T) {
	api := newFakeFavorites()
	l := NewLedger(api)
	_, err := l.Toggle(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Empty(t, api.server)
}

func TestLedger_IdentityTransitions(t *testing.T) {
	ctx := context.Background()
	api := newFakeFavorites(3, 5)
	l := NewLedger(api)

	require.NoError(t, l.SetIdentity(ctx, true))
	assert.Equal(t, 1, api.loadCalls)
	ids := l.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []uint64{3, 5}, ids)

	// no transition, no reload
	require.NoError(t, l.SetIdentity(ctx, true))
	assert.Equal(t, 1, api.loadCalls)

	require.NoError(t, l.SetIdentity(ctx, false))
	assert.Empty(t, l.IDs())
	assert.False(t, l.IsFavorite(3))
}

func TestLedger_ToggleAppliesOnlyAfterAck(t *testing.T) {
	ctx := context.Background()
	api := newFakeFavorites()
	l := NewLedger(api)
	require.NoError(t, l.SetIdentity(ctx, true))

	on, err := l.Toggle(ctx, 7)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, l.IsFavorite(7))

	api.failNext = errors.New("offline")
	on, err = l.Toggle(ctx, 7)
	assert.Error(t, err)
	assert.True(t, on)
	assert.True(t, l.IsFavorite(7))
	assert.True(t, api.server[7])

	on, err = l.Toggle(ctx, 7)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, l.IsFavorite(7))
}
