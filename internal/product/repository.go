// File: internal/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	List(ctx context.Context, q ListQuery) ([]Product, int64, error)
	FindAllForSync(ctx context.Context, offset, limit int) ([]Product, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddReview(ctx context.Context, review *Review) error
	RecalculateRating(ctx context.Context, productID uuid.UUID) error
	ToggleLike(ctx context.Context, productID, userID uuid.UUID) (liked bool, err error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-backed product repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := r.db.WithContext(ctx).
		Preload("Reviews").
		Preload("Likes").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Product not found.")
		}
		return nil, fmt.Errorf("finding product: %w", err)
	}
	return &p, nil
}

func (r *gormRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}
	var products []Product
	err := r.db.WithContext(ctx).
		Preload("Likes").
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("finding products by ids: %w", err)
	}

	// Preserve the caller's ordering, which carries search relevance.
	byID := make(map[uuid.UUID]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// FindAllForSync pages through all products in stable order for bulk
// reindexing.
func (r *gormRepository) FindAllForSync(ctx context.Context, offset, limit int) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("fetching products for sync: %w", err)
	}
	return products, nil
}

func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&Product{})

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	var products []Product
	err := query.
		Preload("Likes").
		Order("created_at DESC").
		Offset(common.OffsetFor(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

func (r *gormRepository) Update(ctx context.Context, p *Product) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Product{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Product not found.")
	}
	return nil
}

func (r *gormRepository) AddReview(ctx context.Context, review *Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("You have already reviewed this product.")
		}
		return fmt.Errorf("adding review: %w", err)
	}
	return nil
}

func (r *gormRepository) RecalculateRating(ctx context.Context, productID uuid.UUID) error {
	var stats struct {
		Avg   float64
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&stats).Error
	if err != nil {
		return fmt.Errorf("aggregating reviews: %w", err)
	}

	err = r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{"rating": stats.Avg, "num_reviews": stats.Count}).Error
	if err != nil {
		return fmt.Errorf("updating rating stats: %w", err)
	}
	return nil
}

func (r *gormRepository) ToggleLike(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var existing ProductLike
	err := r.db.WithContext(ctx).
		First(&existing, "product_id = ? AND user_id = ?", productID, userID).Error

	switch {
	case err == nil:
		if delErr := r.db.WithContext(ctx).
			Delete(&ProductLike{}, "product_id = ? AND user_id = ?", productID, userID).Error; delErr != nil {
			return false, fmt.Errorf("removing like: %w", delErr)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := ProductLike{ProductID: productID, UserID: userID}
		if addErr := r.db.WithContext(ctx).Create(&like).Error; addErr != nil {
			if errors.Is(addErr, gorm.ErrDuplicatedKey) {
				return true, nil
			}
			return false, fmt.Errorf("adding like: %w", addErr)
		}
		return true, nil
	default:
		return false, fmt.Errorf("checking like: %w", err)
	}
}
