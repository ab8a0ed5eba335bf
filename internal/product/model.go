// File: internal/product/model.go
package product

import (
	"time"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
)

// Product categories form a fixed catalogue taxonomy.
const (
	CategoryIndoorPlants     = "Indoor Plants"
	CategoryOutdoorPlants    = "Outdoor Plants"
	CategoryFlowers          = "Flowers"
	CategorySucculents       = "Succulents"
	CategoryHerbs            = "Herbs"
	CategorySeeds            = "Seeds"
	CategoryGardeningTools   = "Gardening Tools"
	CategoryPlantAccessories = "Plant Accessories"
)

// Product statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// ValidCategories lists every accepted product category.
var ValidCategories = []string{
	CategoryIndoorPlants,
	CategoryOutdoorPlants,
	CategoryFlowers,
	CategorySucculents,
	CategoryHerbs,
	CategorySeeds,
	CategoryGardeningTools,
	CategoryPlantAccessories,
}

// IsValidCategory reports whether the given category is part of the taxonomy.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Product is the GORM model for catalogue items.
type Product struct {
	common.BaseModel
	Name        string    `gorm:"size:100;not null;index"`
	Description string    `gorm:"size:1000;not null"`
	Price       float64   `gorm:"not null"`
	Category    string    `gorm:"size:64;not null;index"`
	Stock       int       `gorm:"not null;default:0"`
	Images      []string  `gorm:"serializer:json"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Rating      float64   `gorm:"not null;default:0"`
	NumReviews  int       `gorm:"not null;default:0"`
	Status      string    `gorm:"size:16;not null;default:'active';index"`

	Reviews []Review      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Likes   []ProductLike `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

func (Product) TableName() string { return "products" }

// Review is a per-user product review. The composite unique index enforces
// one review per user per product at the storage layer.
type Review struct {
	common.BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	Rating    int       `gorm:"not null"`
	Comment   string    `gorm:"size:1000;not null"`
}

func (Review) TableName() string { return "product_reviews" }

// ProductLike records that a user likes a product.
type ProductLike struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func (ProductLike) TableName() string { return "product_likes" }

// CreateProductRequest is the payload for creating a product. Images arrive
// as multipart files and are handled separately.
type CreateProductRequest struct {
	Name        string  `form:"name" json:"name" binding:"required,min=1,max=100"`
	Description string  `form:"description" json:"description" binding:"required,min=1,max=1000"`
	Price       float64 `form:"price" json:"price" binding:"required,gte=0,lte=10000"`
	Category    string  `form:"category" json:"category" binding:"required"`
	Stock       int     `form:"stock" json:"stock" binding:"gte=0"`
}

// UpdateProductRequest carries the mutable product fields. Pointer fields
// distinguish "absent" from zero values.
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string  `json:"description" binding:"omitempty,min=1,max=1000"`
	Price       *float64 `json:"price" binding:"omitempty,gte=0,lte=10000"`
	Category    *string  `json:"category" binding:"omitempty"`
	Stock       *int     `json:"stock" binding:"omitempty,gte=0"`
	Status      *string  `json:"status" binding:"omitempty,oneof=active inactive"`
}

// AddReviewRequest is the payload for reviewing a product.
type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment string `json:"comment" binding:"required,min=1,max=1000"`
}

// ListQuery captures the supported list filters.
type ListQuery struct {
	Search   string
	Category string
	Status   string
	Page     int
	PageSize int
}

// ReviewResponse is the public representation of a review.
type ReviewResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductResponse is the public representation of a product.
type ProductResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Category    string           `json:"category"`
	Stock       int              `json:"stock"`
	Images      []string         `json:"images"`
	UserID      string           `json:"user_id"`
	Rating      float64          `json:"rating"`
	NumReviews  int              `json:"num_reviews"`
	LikeCount   int              `json:"like_count"`
	Status      string           `json:"status"`
	Reviews     []ReviewResponse `json:"reviews,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ToProductResponse converts a product model to its API representation.
func ToProductResponse(p *Product) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Images:      p.Images,
		UserID:      p.UserID.String(),
		Rating:      p.Rating,
		NumReviews:  p.NumReviews,
		LikeCount:   len(p.Likes),
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	for _, r := range p.Reviews {
		resp.Reviews = append(resp.Reviews, ReviewResponse{
			ID:        r.ID.String(),
			UserID:    r.UserID.String(),
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.CreatedAt,
		})
	}
	return resp
}

// ToProductResponses converts a slice of products.
func ToProductResponses(products []Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out
}
