package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"popfitup-backend/internal/domain"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 60
	relatedLimit    = 12
)

// Service is the read side of the popup_stores table. Every method is
// side-effect free.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

// Page is one page of search results. Total counts all matches.
type Page struct {
	Items    []domain.Listing `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) listings(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Model(&domain.Listing{}).Preload("Categories")
}

func (s *Service) GetByID(ctx context.Context, id uint64) (*domain.Listing, error) {
	var l domain.Listing
	if err := s.listings(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch popup %d: %w", id, err)
	}
	return &l, nil
}

// GetLatest returns listings updated within the trailing window, newest
// first. Updates stamped in the future are excluded.
func (s *Service) GetLatest(ctx context.Context, windowDays, limit int) ([]domain.Listing, error) {
	now := s.now()
	from := now.AddDate(0, 0, -windowDays)
	var out []domain.Listing
	q := s.listings(ctx).
		Where("updated_at >= ? AND updated_at <= ?", from, now).
		Order("updated_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("fetch latest popups: %w", err)
	}
	return out, nil
}

// GetPopular returns the popular bucket. The order is a stable placeholder
// (insertion order) until a ranking contract exists; callers must not rely
// on it meaning anything.
func (s *Service) GetPopular(ctx context.Context, limit int) ([]domain.Listing, error) {
	var out []domain.Listing
	q := s.listings(ctx).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("fetch popular popups: %w", err)
	}
	return out, nil
}

// GetByMonth returns listings whose date range overlaps the month. A missing
// bound is open on that side; listings with no dates at all never match.
func (s *Service) GetByMonth(ctx context.Context, month domain.MonthKey) ([]domain.Listing, error) {
	var out []domain.Listing
	err := s.listings(ctx).
		Where("(start_date IS NOT NULL OR end_date IS NOT NULL)").
		Where("(start_date IS NULL OR start_date <= ?)", month.LastDay()).
		Where("(end_date IS NULL OR end_date >= ?)", month.FirstDay()).
		Order("start_date ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("fetch popups for %s: %w", month, err)
	}
	return out, nil
}

// Search applies the faceted filter and paginates (1-indexed). Out of range
// page and pageSize values are clamped rather than rejected.
func (s *Service) Search(ctx context.Context, filter domain.SearchFilter, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	f := filter.Normalize()

	q := s.DB.WithContext(ctx).Model(&domain.Listing{})
	if f.Location != "" {
		like := containsPattern(f.Location)
		q = q.Where(`(LOWER(address) LIKE LOWER(?) ESCAPE '\' OR LOWER(region_label) LIKE LOWER(?) ESCAPE '\')`, like, like)
	}
	if f.Category != "" {
		q = q.Where("EXISTS (SELECT 1 FROM popup_categories pc WHERE pc.popup_id = popup_stores.id AND pc.code = ?)", f.Category)
	}
	if f.Date != "" {
		d, _ := domain.ParseDate(f.Date)
		q = q.Where("start_date IS NOT NULL AND end_date IS NOT NULL AND start_date <= ? AND end_date >= ?", d, d)
	}
	if f.Keyword != "" {
		like := containsPattern(f.Keyword)
		q = q.Where(`(LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\')`, like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count popups: %w", err)
	}
	items := []domain.Listing{}
	err := q.Preload("Categories").
		Order("updated_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("search popups: %w", err)
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern matches s as a literal substring under LIKE ... ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// GetSimilar returns listings sharing a category with id, excluding id.
func (s *Service) GetSimilar(ctx context.Context, id uint64) ([]domain.Listing, error) {
	l, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	codes := l.CategoryCodes()
	if len(codes) == 0 {
		return []domain.Listing{}, nil
	}
	var out []domain.Listing
	err = s.listings(ctx).
		Where("id <> ?", id).
		Where("EXISTS (SELECT 1 FROM popup_categories pc WHERE pc.popup_id = popup_stores.id AND pc.code IN ?)", codes).
		Order("updated_at DESC").Order("id DESC").
		Limit(relatedLimit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("fetch similar popups: %w", err)
	}
	return out, nil
}

// GetNearby returns listings in the same region label, excluding id.
func (s *Service) GetNearby(ctx context.Context, id uint64) ([]domain.Listing, error) {
	l, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []domain.Listing
	err = s.listings(ctx).
		Where("region_label = ? AND id <> ?", l.RegionLabel, id).
		Order("updated_at DESC").Order("id DESC").
		Limit(relatedLimit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("fetch nearby popups: %w", err)
	}
	return out, nil
}
