// File: internal/donation/repository.go
package donation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for donations and their claims.
type Repository interface {
	Create(ctx context.Context, d *Donation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	List(ctx context.Context, q ListQuery) ([]Donation, int64, error)
	Update(ctx context.Context, d *Donation) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddClaim(ctx context.Context, claim *DonationClaim) error
	FindClaim(ctx context.Context, claimID uuid.UUID) (*DonationClaim, error)
	UpdateClaim(ctx context.Context, claim *DonationClaim) error
	RejectOtherPendingClaims(ctx context.Context, donationID, approvedClaimID uuid.UUID) error
	RevertStaleClaimed(ctx context.Context, olderThan time.Time) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-backed donation repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, d *Donation) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("creating donation: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	var d Donation
	err := r.db.WithContext(ctx).
		Preload("Claims").
		First(&d, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Donation not found.")
		}
		return nil, fmt.Errorf("finding donation: %w", err)
	}
	return &d, nil
}

func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]Donation, int64, error) {
	query := r.db.WithContext(ctx).Model(&Donation{})

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting donations: %w", err)
	}

	var donations []Donation
	err := query.
		Order("created_at DESC").
		Offset(common.OffsetFor(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&donations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing donations: %w", err)
	}
	return donations, total, nil
}

func (r *gormRepository) Update(ctx context.Context, d *Donation) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return fmt.Errorf("updating donation: %w", err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Donation{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting donation: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Donation not found.")
	}
	return nil
}

func (r *gormRepository) AddClaim(ctx context.Context, claim *DonationClaim) error {
	err := r.db.WithContext(ctx).Create(claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("You have already claimed this donation.")
		}
		return fmt.Errorf("adding claim: %w", err)
	}
	return nil
}

func (r *gormRepository) FindClaim(ctx context.Context, claimID uuid.UUID) (*DonationClaim, error) {
	var claim DonationClaim
	err := r.db.WithContext(ctx).First(&claim, "id = ?", claimID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Claim not found.")
		}
		return nil, fmt.Errorf("finding claim: %w", err)
	}
	return &claim, nil
}

func (r *gormRepository) UpdateClaim(ctx context.Context, claim *DonationClaim) error {
	if err := r.db.WithContext(ctx).Save(claim).Error; err != nil {
		return fmt.Errorf("updating claim: %w", err)
	}
	return nil
}

func (r *gormRepository) RejectOtherPendingClaims(ctx context.Context, donationID, approvedClaimID uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&DonationClaim{}).
		Where("donation_id = ? AND id <> ? AND status = ?", donationID, approvedClaimID, ClaimStatusPending).
		Update("status", ClaimStatusRejected).Error
	if err != nil {
		return fmt.Errorf("rejecting other claims: %w", err)
	}
	return nil
}

// RevertStaleClaimed returns claimed donations to the available pool when
// their approved claim was never completed within the pickup window. The
// stale approved claims themselves are rejected.
func (r *gormRepository) RevertStaleClaimed(ctx context.Context, olderThan time.Time) (int64, error) {
	var staleClaims []DonationClaim
	err := r.db.WithContext(ctx).
		Where("status = ? AND approved_at < ?", ClaimStatusApproved, olderThan).
		Find(&staleClaims).Error
	if err != nil {
		return 0, fmt.Errorf("finding stale claims: %w", err)
	}
	if len(staleClaims) == 0 {
		return 0, nil
	}

	var reverted int64
	for _, claim := range staleClaims {
		txErr := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			result := tx.Model(&Donation{}).
				Where("id = ? AND status = ?", claim.DonationID, StatusClaimed).
				Update("status", StatusAvailable)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return nil
			}
			if err := tx.Model(&DonationClaim{}).
				Where("id = ?", claim.ID).
				Update("status", ClaimStatusRejected).Error; err != nil {
				return err
			}
			reverted++
			return nil
		})
		if txErr != nil {
			return reverted, fmt.Errorf("reverting stale donation %s: %w", claim.DonationID, txErr)
		}
	}
	return reverted, nil
}
