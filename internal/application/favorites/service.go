package favorites

import (
	"context"
	"errors"
	"fmt"

	"popfitup-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrLoginRequired = errors.New("Login required")
	ErrNotFound      = errors.New("Popup not found")
)

// Service owns the favorites relation and keeps popup_stores.favorite_count
// in step with it.
type Service struct {
	DB *gorm.DB
}

// Add marks popupID as a favorite of who and returns the new favorite count.
// Adding an existing favorite is a no-op.
func (s *Service) Add(ctx context.Context, who domain.Identity, popupID uint64) (int64, error) {
	if !who.IsUser() {
		return 0, ErrLoginRequired
	}
	var count int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockListing(tx, popupID); err != nil {
			return err
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.Favorite{UserID: who.ID, PopupID: popupID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&domain.Listing{}).Where("id = ?", popupID).
				UpdateColumn("favorite_count", gorm.Expr("favorite_count + 1")).Error; err != nil {
				return err
			}
		}
		return readCount(tx, popupID, &count)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("add favorite: %w", err)
	}
	return count, nil
}

// Remove unmarks popupID and returns the new favorite count. Removing a
// missing favorite is a no-op.
func (s *Service) Remove(ctx context.Context, who domain.Identity, popupID uint64) (int64, error) {
	if !who.IsUser() {
		return 0, ErrLoginRequired
	}
	var count int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockListing(tx, popupID); err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND popup_id = ?", who.ID, popupID).Delete(&domain.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&domain.Listing{}).Where("id = ? AND favorite_count > 0", popupID).
				UpdateColumn("favorite_count", gorm.Expr("favorite_count - 1")).Error; err != nil {
				return err
			}
		}
		return readCount(tx, popupID, &count)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("remove favorite: %w", err)
	}
	return count, nil
}

// ListMine returns the favorited listings of who, most recently updated first.
func (s *Service) ListMine(ctx context.Context, who domain.Identity) ([]domain.Listing, error) {
	if !who.IsUser() {
		return nil, ErrLoginRequired
	}
	out := []domain.Listing{}
	err := s.DB.WithContext(ctx).Preload("Categories").
		Joins("JOIN favorites f ON f.popup_id = popup_stores.id").
		Where("f.user_id = ?", who.ID).
		Order("popup_stores.updated_at DESC").Order("popup_stores.id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

// FavoritedIDs returns which of ids are favorites of who. Anonymous callers
// get an empty set.
func (s *Service) FavoritedIDs(ctx context.Context, who domain.Identity, ids []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool, len(ids))
	if !who.IsUser() || len(ids) == 0 {
		return out, nil
	}
	var found []uint64
	err := s.DB.WithContext(ctx).Model(&domain.Favorite{}).
		Where("user_id = ? AND popup_id IN ?", who.ID, ids).
		Pluck("popup_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("lookup favorites: %w", err)
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func lockListing(tx *gorm.DB, popupID uint64) error {
	var l domain.Listing
	q := tx.Select("id")
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", popupID).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func readCount(tx *gorm.DB, popupID uint64, count *int64) error {
	return tx.Model(&domain.Listing{}).Where("id = ?", popupID).Pluck("favorite_count", count).Error
}
