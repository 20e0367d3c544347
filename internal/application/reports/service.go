package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"popfitup-backend/internal/domain"
	"popfitup-backend/internal/pkg/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	maxNameLength        = 100
	maxAddressLength     = 200
	maxDescriptionLength = 2000
	maxAnswerLength      = 2000
)

// Service implements the report moderation workflow.
type Service struct {
	DB *gorm.DB
	// AdminKey is compared by plain equality. An empty key rejects every
	// admin call.
	AdminKey string
	// AllowDeleteAnswered lets owners delete reports that already carry an
	// answer. Off by default.
	AllowDeleteAnswered bool
	Now                 func() time.Time
}

// SubmitInput is the user-supplied part of a report.
type SubmitInput struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Authorize checks an admin secret.
func (s *Service) Authorize(secret string) error {
	if s.AdminKey == "" || secret != s.AdminKey {
		return ErrUnauthorized
	}
	return nil
}

func (in SubmitInput) normalize() (SubmitInput, error) {
	out := SubmitInput{
		Name:        strings.TrimSpace(in.Name),
		Address:     strings.TrimSpace(in.Address),
		Description: strings.TrimSpace(in.Description),
	}
	if validation.IsBlank(out.Name) || validation.IsBlank(out.Address) || validation.IsBlank(out.Description) {
		return out, fmt.Errorf("%w: name, address and description are required", ErrValidation)
	}
	if !validation.WithinLength(out.Name, maxNameLength) ||
		!validation.WithinLength(out.Address, maxAddressLength) ||
		!validation.WithinLength(out.Description, maxDescriptionLength) {
		return out, fmt.Errorf("%w: field too long", ErrValidation)
	}
	return out, nil
}

// Submit stores a report for who. The quota bump and the insert commit
// together, so concurrent submissions cannot exceed MaxOutstandingReports.
func (s *Service) Submit(ctx context.Context, who domain.Identity, in SubmitInput) (*domain.Report, error) {
	if who.IsZero() {
		return nil, ErrNoIdentity
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	submitter := who.String()
	now := s.now()
	report := &domain.Report{
		Submitter:   submitter,
		Name:        in.Name,
		Address:     in.Address,
		Description: in.Description,
		CreatedAt:   now,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.ReportQuota{Submitter: submitter, UpdatedAt: now}).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.ReportQuota{}).
			Where("submitter = ? AND outstanding < ?", submitter, domain.MaxOutstandingReports).
			UpdateColumns(map[string]interface{}{
				"outstanding": gorm.Expr("outstanding + 1"),
				"updated_at":  now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrQuotaExceeded
		}
		return tx.Create(report).Error
	})
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("submit report: %w", err)
	}
	return report, nil
}

// ListMine returns who's reports, newest first.
func (s *Service) ListMine(ctx context.Context, who domain.Identity) ([]domain.Report, error) {
	if who.IsZero() {
		return nil, ErrNoIdentity
	}
	out := []domain.Report{}
	err := s.DB.WithContext(ctx).
		Where("submitter = ?", who.String()).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// ListAll returns every report, newest first.
func (s *Service) ListAll(ctx context.Context, secret string) ([]domain.Report, error) {
	if err := s.Authorize(secret); err != nil {
		return nil, err
	}
	out := []domain.Report{}
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// Answer sets the answer once. A second call fails with ErrAlreadyAnswered
// and leaves the stored answer untouched.
func (s *Service) Answer(ctx context.Context, id uint64, secret, text string) (*domain.Report, error) {
	if err := s.Authorize(secret); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrAnswerRequired
	}
	if !validation.WithinLength(text, maxAnswerLength) {
		return nil, fmt.Errorf("%w: answer too long", ErrValidation)
	}

	var report domain.Report
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tx.Model(&domain.Report{}).
			Where("id = ? AND answer IS NULL", id).
			UpdateColumns(map[string]interface{}{"answer": text, "answered_at": now})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&report, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyAnswered
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyAnswered) {
			return nil, err
		}
		return nil, fmt.Errorf("answer report %d: %w", id, err)
	}
	return &report, nil
}

// DeleteOwn deletes a report on behalf of its submitter.
func (s *Service) DeleteOwn(ctx context.Context, id uint64, who domain.Identity) error {
	if who.IsZero() {
		return ErrNoIdentity
	}
	return s.delete(ctx, id, func(r *domain.Report) error {
		if r.Submitter != who.String() {
			return ErrForbidden
		}
		if r.Answered() && !s.AllowDeleteAnswered {
			return ErrAnsweredLocked
		}
		return nil
	})
}

// DeleteAdmin deletes any report given the admin secret.
func (s *Service) DeleteAdmin(ctx context.Context, id uint64, secret string) error {
	if err := s.Authorize(secret); err != nil {
		return err
	}
	return s.delete(ctx, id, func(*domain.Report) error { return nil })
}

func (s *Service) delete(ctx context.Context, id uint64, allow func(*domain.Report) error) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var r domain.Report
		if err := tx.First(&r, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := allow(&r); err != nil {
			return err
		}
		res := tx.Delete(&domain.Report{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&domain.ReportQuota{}).
			Where("submitter = ? AND outstanding > 0", r.Submitter).
			UpdateColumns(map[string]interface{}{
				"outstanding": gorm.Expr("outstanding - 1"),
				"updated_at":  s.now(),
			}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden), errors.Is(err, ErrAnsweredLocked):
			return err
		}
		return fmt.Errorf("delete report %d: %w", id, err)
	}
	return nil
}
