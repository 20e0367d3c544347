// Package dto holds the JSON shapes exchanged between the API and its
// clients. Both the fiber handlers and internal/client use these types.
package dto

import (
	"context"
	"time"

	"popfitup-backend/internal/domain"
)

// PopupItem is the wire shape of a listing.
type PopupItem struct {
	ID              uint64   `json:"id"`
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	Address         string   `json:"address"`
	Region          string   `json:"region"`
	Category        string   `json:"category"`
	Categories      []string `json:"categories"`
	Lat             *float64 `json:"lat"`
	Lon             *float64 `json:"lon"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	Description     string   `json:"description"`
	SiteLink        string   `json:"site_link"`
	Images          []string `json:"images"`
	Thumbnail       string   `json:"thumbnail"`
	WeeklyViewCount int64    `json:"weekly_view_count"`
	FavoriteCount   int64    `json:"favorite_count"`
	IsFavorited     *bool    `json:"is_favorited,omitempty"`
	Updated         string   `json:"updated"`
}

// NewPopupItem maps a listing. favorited is nil for anonymous callers.
func NewPopupItem(l domain.Listing, favorited *bool) PopupItem {
	codes := l.CategoryCodes()
	item := PopupItem{
		ID:              l.ID,
		Name:            l.Name,
		Title:           l.Name,
		Address:         l.Address,
		Region:          l.RegionLabel,
		Categories:      make([]string, 0, len(codes)),
		Lat:             l.MapY,
		Lon:             l.MapX,
		StartDate:       domain.FormatDate(l.StartDate),
		EndDate:         domain.FormatDate(l.EndDate),
		Images:          append([]string{}, l.Images...),
		Thumbnail:       l.Thumbnail(),
		WeeklyViewCount: l.WeeklyViewCount,
		FavoriteCount:   l.FavoriteCount,
		IsFavorited:     favorited,
		Updated:         l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, c := range codes {
		item.Categories = append(item.Categories, string(c))
	}
	if len(codes) > 0 {
		item.Category = codes[0].Label()
	}
	if l.Description != nil {
		item.Description = *l.Description
	}
	if l.SiteLink != nil {
		item.SiteLink = *l.SiteLink
	}
	return item
}

// NewPopupItems maps listings. favorites is nil for anonymous callers;
// otherwise every item gets is_favorited.
func NewPopupItems(ls []domain.Listing, favorites map[uint64]bool) []PopupItem {
	out := make([]PopupItem, 0, len(ls))
	for _, l := range ls {
		var fav *bool
		if favorites != nil {
			v := favorites[l.ID]
			fav = &v
		}
		out = append(out, NewPopupItem(l, fav))
	}
	return out
}

// HomeResponse is GET /api/home. Latest and Popular are omitted when a
// specific month was requested.
type HomeResponse struct {
	Month   string      `json:"month"`
	Latest  []PopupItem `json:"latest,omitempty"`
	Popular []PopupItem `json:"popular,omitempty"`
	Monthly []PopupItem `json:"monthly"`
}

// SearchResponse is GET /api/popups.
type SearchResponse struct {
	Items    []PopupItem `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// ReportItem is the wire shape of a report.
type ReportItem struct {
	ID          uint64  `json:"id"`
	Submitter   string  `json:"submitter"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	Answer      *string `json:"answer"`
	AnsweredAt  *string `json:"answeredAt"`
}

func NewReportItem(r domain.Report) ReportItem {
	item := ReportItem{
		ID:          r.ID,
		Submitter:   r.Submitter,
		Name:        r.Name,
		Address:     r.Address,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
		Answer:      r.Answer,
	}
	if r.AnsweredAt != nil {
		s := r.AnsweredAt.UTC().Format(time.RFC3339)
		item.AnsweredAt = &s
	}
	return item
}

func NewReportItems(rs []domain.Report) []ReportItem {
	out := make([]ReportItem, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewReportItem(r))
	}
	return out
}

// SubmitReportRequest is the body of POST /api/reports.
type SubmitReportRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// AnswerRequest is the body of POST /api/reports/:id/answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	PopupID uint64 `json:"popupId"`
}

// FavoriteResponse reports the state after an add or remove.
type FavoriteResponse struct {
	PopupID       uint64 `json:"popupId"`
	Favorited     bool   `json:"favorited"`
	FavoriteCount int64  `json:"favoriteCount"`
}

// MeResponse is GET /api/users/me.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Email         string `json:"email,omitempty"`
	Identity      string `json:"identity,omitempty"`
}

// FavoriteLookup answers which listings an identity has favorited.
type FavoriteLookup interface {
	FavoritedIDs(ctx context.Context, who domain.Identity, ids []uint64) (map[uint64]bool, error)
}

// Annotate maps listings, setting is_favorited when who is a logged-in user.
func Annotate(ctx context.Context, lookup FavoriteLookup, who domain.Identity, ls []domain.Listing) ([]PopupItem, error) {
	if lookup == nil || !who.IsUser() {
		return NewPopupItems(ls, nil), nil
	}
	ids := make([]uint64, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.ID)
	}
	favs, err := lookup.FavoritedIDs(ctx, who, ids)
	if err != nil {
		return nil, err
	}
	return NewPopupItems(ls, favs), nil
}
