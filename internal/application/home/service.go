package home

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"popfitup-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const monthlyKeyPrefix = "home:monthly:"

// Store is the part of the catalog the home feed reads.
type Store interface {
	GetLatest(ctx context.Context, windowDays, limit int) ([]domain.Listing, error)
	GetPopular(ctx context.Context, limit int) ([]domain.Listing, error)
	GetByMonth(ctx context.Context, month domain.MonthKey) ([]domain.Listing, error)
}

// Service composes the three home buckets. Rdb is optional; when set, the
// monthly bucket is cached per month for CacheTTL.
type Service struct {
	Store            Store
	Rdb              *redis.Client
	CacheTTL         time.Duration
	LatestWindowDays int
	BucketLimit      int
	Location         *time.Location
	Now              func() time.Time
}

// Buckets is the initial home payload.
type Buckets struct {
	Month   domain.MonthKey
	Latest  []domain.Listing
	Popular []domain.Listing
	Monthly []domain.Listing
}

// CurrentMonth is the calendar month of "now" in the service location.
func (s *Service) CurrentMonth() domain.MonthKey {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return domain.MonthOf(now)
}

// Initial returns latest, popular and the current month's bucket. Its monthly
// bucket is the same value Monthly(CurrentMonth()) returns.
func (s *Service) Initial(ctx context.Context) (*Buckets, error) {
	month := s.CurrentMonth()
	latest, err := s.Store.GetLatest(ctx, s.LatestWindowDays, s.BucketLimit)
	if err != nil {
		return nil, err
	}
	popular, err := s.Store.GetPopular(ctx, s.BucketLimit)
	if err != nil {
		return nil, err
	}
	monthly, err := s.monthly(ctx, month)
	if err != nil {
		return nil, err
	}
	return &Buckets{Month: month, Latest: latest, Popular: popular, Monthly: monthly}, nil
}

// Monthly returns only the bucket for month.
func (s *Service) Monthly(ctx context.Context, month domain.MonthKey) ([]domain.Listing, error) {
	return s.monthly(ctx, month)
}

func (s *Service) monthly(ctx context.Context, month domain.MonthKey) ([]domain.Listing, error) {
	key := monthlyKeyPrefix + month.String()
	if s.cacheEnabled() {
		b, err := s.Rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var cached []domain.Listing
			if jsonErr := json.Unmarshal(b, &cached); jsonErr == nil {
				return cached, nil
			}
			log.Warn().Str("key", key).Msg("home: discarding undecodable cached bucket")
		case !errors.Is(err, redis.Nil):
			log.Warn().Err(err).Str("key", key).Msg("home: bucket cache read failed")
		}
	}

	listings, err := s.Store.GetByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []domain.Listing{}
	}
	if s.cacheEnabled() {
		if b, err := json.Marshal(listings); err == nil {
			if err := s.Rdb.Set(ctx, key, b, s.CacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("home: bucket cache write failed")
			}
		}
	}
	return listings, nil
}

func (s *Service) cacheEnabled() bool {
	return s.Rdb != nil && s.CacheTTL > 0
}
