package favorites

import (
	"context"
	"testing"
	"time"

	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/infrastructure/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFavoritesTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func createListing(t *testing.T, db *gorm.DB, name string, updated time.Time) *domain.Listing {
	l := &domain.Listing{Name: name, Address: "서울시 용산구 한남동", UpdatedAt: updated}
	require.NoError(t, db.Create(l).Error)
	return l
}

func TestAdd_IsIdempotent(t *testing.T) {
	svc, db := setupFavoritesTest(t)
	l := createListing(t, db, "cafe", time.Now())
	alice := domain.UserIdentity("alice")
	ctx := context.Background()

	count, err := svc.Add(ctx, alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.Add(ctx, alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = svc.Add(ctx, domain.UserIdentity("bob"), l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var rows int64
	require.NoError(t, db.Model(&domain.Favorite{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestRemove_DecrementsOnce(t *testing.T) {
	svc, db := setupFavoritesTest(t)
	l := createListing(t, db, "cafe", time.Now())
	alice := domain.UserIdentity("alice")
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, l.ID)
	require.NoError(t, err)

	count, err := svc.Remove(ctx, alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = svc.Remove(ctx, alice, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestAdd_RequiresUserAndListing(t *testing.T) {
	svc, db := setupFavoritesTest(t)
	l := createListing(t, db, "cafe", time.Now())
	ctx := context.Background()

	device, err := domain.DeviceIdentity("6f1c4f1e-52a6-4c55-9d1e-1c4b7a5e2a10")
	require.NoError(t, err)
	_, err = svc.Add(ctx, device, l.ID)
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = svc.Add(ctx, domain.Identity{}, l.ID)
	assert.ErrorIs(t, err, ErrLoginRequired)

	_, err = svc.Add(ctx, domain.UserIdentity("alice"), l.ID+99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMine_OrderedByUpdate(t *testing.T) {
	svc, db := setupFavoritesTest(t)
	base := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
	older := createListing(t, db, "older", base)
	newer := createListing(t, db, "newer", base.Add(time.Hour))
	createListing(t, db, "not-mine", base.Add(2*time.Hour))
	alice := domain.UserIdentity("alice")
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, older.ID)
	require.NoError(t, err)
	_, err = svc.Add(ctx, alice, newer.ID)
	require.NoError(t, err)

	got, err := svc.ListMine(ctx, alice)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "newer", got[0].Name)
	assert.Equal(t, "older", got[1].Name)

	empty, err := svc.ListMine(ctx, domain.UserIdentity("carol"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFavoritedIDs(t *testing.T) {
	svc, db := setupFavoritesTest(t)
	a := createListing(t, db, "a", time.Now())
	b := createListing(t, db, "b", time.Now())
	alice := domain.UserIdentity("alice")
	ctx := context.Background()

	_, err := svc.Add(ctx, alice, a.ID)
	require.NoError(t, err)

	got, err := svc.FavoritedIDs(ctx, alice, []uint64{a.ID, b.ID})
	require.NoError(t, err)
	assert.True(t, got[a.ID])
	assert.False(t, got[b.ID])

	anon, err := svc.FavoritedIDs(ctx, domain.Identity{}, []uint64{a.ID})
	require.NoError(t, err)
	assert.Empty(t, anon)
}
