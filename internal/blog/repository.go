// File: internal/blog/repository.go
package blog

import (
	"context"
	"errors"
	"fmt"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for blog posts.
type Repository interface {
	Create(ctx context.Context, b *Blog) error
	FindByID(ctx context.Context, id uuid.UUID) (*Blog, error)
	FindBySlug(ctx context.Context, slug string) (*Blog, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, q ListQuery) ([]Blog, int64, error)
	Update(ctx context.Context, b *Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, comment *Comment) error
	ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (liked bool, err error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM-backed blog repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, b *Blog) error {
	err := r.db.WithContext(ctx).Create(b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("A blog post with this slug already exists.")
		}
		return fmt.Errorf("creating blog: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Blog, error) {
	var b Blog
	err := r.db.WithContext(ctx).
		Preload("Comments").
		Preload("Likes").
		First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Blog post not found.")
		}
		return nil, fmt.Errorf("finding blog: %w", err)
	}
	return &b, nil
}

func (r *gormRepository) FindBySlug(ctx context.Context, slug string) (*Blog, error) {
	var b Blog
	err := r.db.WithContext(ctx).
		Preload("Comments").
		Preload("Likes").
		First(&b, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Blog post not found.")
		}
		return nil, fmt.Errorf("finding blog by slug: %w", err)
	}
	return &b, nil
}

func (r *gormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Blog{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return count > 0, nil
}

func (r *gormRepository) List(ctx context.Context, q ListQuery) ([]Blog, int64, error) {
	query := r.db.WithContext(ctx).Model(&Blog{})

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.PlantType != "" {
		query = query.Where("plant_type = ?", q.PlantType)
	}
	if q.Tag != "" {
		// Tags are stored as a JSON array; match the quoted element.
		query = query.Where("tags LIKE ?", "%\""+q.Tag+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting blogs: %w", err)
	}

	var blogs []Blog
	err := query.
		Preload("Likes").
		Order("created_at DESC").
		Offset(common.OffsetFor(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&blogs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing blogs: %w", err)
	}
	return blogs, total, nil
}

func (r *gormRepository) Update(ctx context.Context, b *Blog) error {
	err := r.db.WithContext(ctx).Save(b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return common.ErrConflict.WithDetails("A blog post with this slug already exists.")
		}
		return fmt.Errorf("updating blog: %w", err)
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&Blog{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting blog: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Blog post not found.")
	}
	return nil
}

func (r *gormRepository) AddComment(ctx context.Context, comment *Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("adding comment: %w", err)
	}
	return nil
}

func (r *gormRepository) ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	var existing BlogLike
	err := r.db.WithContext(ctx).
		First(&existing, "blog_id = ? AND user_id = ?", blogID, userID).Error

	switch {
	case err == nil:
		if delErr := r.db.WithContext(ctx).
			Delete(&BlogLike{}, "blog_id = ? AND user_id = ?", blogID, userID).Error; delErr != nil {
			return false, fmt.Errorf("removing like: %w", delErr)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		like := BlogLike{BlogID: blogID, UserID: userID}
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
