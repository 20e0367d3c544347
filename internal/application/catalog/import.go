package catalog

import (
	"context"
	"fmt"
	"strings"

	"popfitup-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is one listing in the ingestion feed. Dates are YYYY-MM-DD or
// empty; unknown category codes are dropped.
type Record struct {
	ID              uint64   `json:"id"`
	Name            string   `json:"name"`
	Address         string   `json:"address"`
	Categories      []string `json:"categories"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	Description     string   `json:"description"`
	SiteLink        string   `json:"site_link"`
	Images          []string `json:"images"`
	WeeklyViewCount int64    `json:"weekly_view_count"`
}

// Listing converts the record. The result passes Listing.Validate.
func (r Record) Listing() (domain.Listing, error) {
	l := domain.Listing{
		ID:              r.ID,
		Name:            strings.TrimSpace(r.Name),
		Address:         strings.TrimSpace(r.Address),
		MapX:            r.Lon,
		MapY:            r.Lat,
		Images:          datatypes.JSONSlice[string](r.Images),
		WeeklyViewCount: r.WeeklyViewCount,
	}
	if l.Name == "" {
		return l, fmt.Errorf("popup %d: name is required", r.ID)
	}
	var err error
	if l.StartDate, err = optionalDate(r.StartDate); err != nil {
		return l, fmt.Errorf("popup %d: %w", r.ID, err)
	}
	if l.EndDate, err = optionalDate(r.EndDate); err != nil {
		return l, fmt.Errorf("popup %d: %w", r.ID, err)
	}
	if d := strings.TrimSpace(r.Description); d != "" {
		l.Description = &d
	}
	if s := strings.TrimSpace(r.SiteLink); s != "" {
		l.SiteLink = &s
	}
	seen := map[domain.Category]bool{}
	for _, raw := range r.Categories {
		c, ok := domain.ParseCategory(raw)
		if !ok || seen[c] {
			continue
		}
		seen[c] = true
		l.Categories = append(l.Categories, domain.ListingCategory{Code: c})
	}
	if err := l.Validate(); err != nil {
		return l, fmt.Errorf("popup %d: %w", r.ID, err)
	}
	return l, nil
}

func optionalDate(s string) (*datatypes.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}

// Import upserts records by id in one transaction and replaces their
// category rows. favorite_count is never overwritten. Returns the number of
// listings written.
func Import(ctx context.Context, db *gorm.DB, recs []Record) (int, error) {
	listings := make([]domain.Listing, 0, len(recs))
	for _, r := range recs {
		l, err := r.Listing()
		if err != nil {
			return 0, err
		}
		listings = append(listings, l)
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range listings {
			l := &listings[i]
			cats := l.Categories
			l.Categories = nil
			upsert := clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"name", "address", "region_label", "mapx", "mapy", "start_date", "end_date",
					"description", "site_link", "images", "weekly_view_count", "updated_at",
				}),
			}
			if err := tx.Clauses(upsert).Create(l).Error; err != nil {
				return fmt.Errorf("upsert popup %q: %w", l.Name, err)
			}
			if err := tx.Where("popup_id = ?", l.ID).Delete(&domain.ListingCategory{}).Error; err != nil {
				return err
			}
			for j := range cats {
				cats[j].PopupID = l.ID
			}
			if len(cats) > 0 {
				if err := tx.Create(&cats).Error; err != nil {
					return err
				}
			}
			l.Categories = cats
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(listings), nil
}
