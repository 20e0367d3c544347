package domain

import (
	"errors"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrInvalidDateRange = errors.New("start date must not be after end date")

// Listing is one popup store (popup_stores table). Rows are created by the
// external ingestion job; this service only reads them and bumps counters.
type Listing struct {
	ID              uint64                      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name            string                      `gorm:"column:name;not null" json:"name"`
	Address         string                      `gorm:"column:address;not null" json:"address"`
	RegionLabel     string                      `gorm:"column:region_label;index" json:"region_label"`
	Categories      []ListingCategory           `gorm:"foreignKey:PopupID;constraint:OnDelete:CASCADE" json:"categories"`
	MapX            *float64                    `gorm:"column:mapx" json:"mapx"`
	MapY            *float64                    `gorm:"column:mapy" json:"mapy"`
	StartDate       *datatypes.Date             `gorm:"column:start_date;type:date" json:"start_date"`
	EndDate         *datatypes.Date             `gorm:"column:end_date;type:date" json:"end_date"`
	Description     *string                     `gorm:"column:description" json:"description"`
	SiteLink        *string                     `gorm:"column:site_link" json:"site_link"`
	Images          datatypes.JSONSlice[string] `gorm:"column:images" json:"images"`
	WeeklyViewCount int64                       `gorm:"column:weekly_view_count;not null;default:0" json:"weekly_view_count"`
	FavoriteCount   int64                       `gorm:"column:favorite_count;not null;default:0" json:"favorite_count"`
	CreatedAt       time.Time                   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time                   `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Listing) TableName() string {
	return "popup_stores"
}

// ListingCategory is one category code attached to a listing.
type ListingCategory struct {
	PopupID uint64   `gorm:"column:popup_id;primaryKey" json:"-"`
	Code    Category `gorm:"column:code;type:varchar(32);primaryKey;index" json:"code"`
}

func (ListingCategory) TableName() string {
	return "popup_categories"
}

// BeforeSave derives the region label and rejects inverted date ranges.
func (l *Listing) BeforeSave(tx *gorm.DB) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.RegionLabel = DeriveRegion(l.Address)
	return nil
}

// Validate checks the start <= end invariant when both bounds are present.
func (l *Listing) Validate() error {
	if l.StartDate != nil && l.EndDate != nil && time.Time(*l.StartDate).After(time.Time(*l.EndDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// CategoryCodes returns the listing's category codes in stored order.
func (l *Listing) CategoryCodes() []Category {
	out := make([]Category, 0, len(l.Categories))
	for _, c := range l.Categories {
		out = append(out, c.Code)
	}
	return out
}

// Thumbnail is the first image, or "" when there are none.
func (l *Listing) Thumbnail() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0]
}

// DeriveRegion returns the "시/도 구/군" prefix of an address (first two
// tokens). Addresses with fewer tokens are returned trimmed as-is.
func DeriveRegion(address string) string {
	fields := strings.Fields(address)
	if len(fields) < 2 {
		return strings.TrimSpace(address)
	}
	return fields[0] + " " + fields[1]
}

// NewDate builds a UTC calendar date usable for date columns.
func NewDate(year int, month time.Month, day int) *datatypes.Date {
	d := datatypes.Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
	return &d
}

// ParseDate parses YYYY-MM-DD into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
}

// FormatDate renders a nullable date as YYYY-MM-DD, or "" when nil.
func FormatDate(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return time.Time(*d).Format("2006-01-02")
}
