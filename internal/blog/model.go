// File: internal/blog/model.go
package blog

import (
	"time"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
)

// Blog statuses.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Blog is the GORM model for community articles.
type Blog struct {
	common.BaseModel
	Title           string    `gorm:"size:200;not null;index"`
	Slug            string    `gorm:"size:255;not null;uniqueIndex"`
	PlantType       string    `gorm:"size:100;not null;index"`
	Content         string    `gorm:"size:5000;not null"`
	CultivationTips string    `gorm:"size:2000;not null"`
	AuthorName      string    `gorm:"size:100;not null"`
	Images          []string  `gorm:"serializer:json"`
	Tags            []string  `gorm:"serializer:json"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Status          string    `gorm:"size:16;not null;default:'published';index"`

	Comments []Comment  `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
	Likes    []BlogLike `gorm:"foreignKey:BlogID;constraint:OnDelete:CASCADE"`
}

func (Blog) TableName() string { return "blogs" }

// Comment is a reader comment attached to a blog post.
type Comment struct {
	common.BaseModel
	BlogID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `gorm:"type:uuid;not null"`
	AuthorName string    `gorm:"size:100;not null"`
	Comment    string    `gorm:"size:500;not null"`
}

func (Comment) TableName() string { return "blog_comments" }

// BlogLike records that a user likes a blog post.
type BlogLike struct {
	BlogID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func (BlogLike) TableName() string { return "blog_likes" }

// CreateBlogRequest is the payload for creating a blog post.
type CreateBlogRequest struct {
	Title           string   `form:"title" json:"title" binding:"required,min=1,max=200"`
	PlantType       string   `form:"plant_type" json:"plant_type" binding:"required,min=1,max=100"`
	Content         string   `form:"content" json:"content" binding:"required,min=1,max=5000"`
	CultivationTips string   `form:"cultivation_tips" json:"cultivation_tips" binding:"required,min=1,max=2000"`
	Tags            []string `form:"tags" json:"tags" binding:"omitempty,dive,max=50"`
	Status          string   `form:"status" json:"status" binding:"omitempty,oneof=published draft"`
}

// UpdateBlogRequest carries the mutable blog fields.
type UpdateBlogRequest struct {
	Title           *string   `json:"title" binding:"omitempty,min=1,max=200"`
	PlantType       *string   `json:"plant_type" binding:"omitempty,min=1,max=100"`
	Content         *string   `json:"content" binding:"omitempty,min=1,max=5000"`
	CultivationTips *string   `json:"cultivation_tips" binding:"omitempty,min=1,max=2000"`
	Tags            *[]string `json:"tags" binding:"omitempty,dive,max=50"`
	Status          *string   `json:"status" binding:"omitempty,oneof=published draft"`
}

// AddCommentRequest is the payload for commenting on a blog post.
type AddCommentRequest struct {
	Comment string `json:"comment" binding:"required,min=1,max=500"`
}

// ListQuery captures the supported list filters.
type ListQuery struct {
	PlantType string
	Tag       string
	Status    string
	Page      int
	PageSize  int
}

// CommentResponse is the public representation of a comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// BlogResponse is the public representation of a blog post.
type BlogResponse struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	PlantType       string            `json:"plant_type"`
	Content         string            `json:"content"`
	CultivationTips string            `json:"cultivation_tips"`
	AuthorName      string            `json:"author_name"`
	Images          []string          `json:"images"`
	Tags            []string          `json:"tags"`
	UserID          string            `json:"user_id"`
	Status          string            `json:"status"`
	LikeCount       int               `json:"like_count"`
	Comments        []CommentResponse `json:"comments,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ToBlogResponse converts a blog model to its API representation.
func ToBlogResponse(b *Blog) BlogResponse {
	resp := BlogResponse{
		ID:              b.ID.String(),
		Title:           b.Title,
		Slug:            b.Slug,
		PlantType:       b.PlantType,
		Content:         b.Content,
		CultivationTips: b.CultivationTips,
		AuthorName:      b.AuthorName,
		Images:          b.Images,
		Tags:            b.Tags,
		UserID:          b.UserID.String(),
		Status:          b.Status,
		LikeCount:       len(b.Likes),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, cm := range b.Comments {
		resp.Comments = append(resp.Comments, CommentResponse{
			ID:         cm.ID.String(),
			UserID:     cm.UserID.String(),
			AuthorName: cm.AuthorName,
			Comment:    cm.Comment,
			CreatedAt:  cm.CreatedAt,
		})
	}
	return resp
}

// ToBlogResponses converts a slice of blog posts.
func ToBlogResponses(blogs []Blog) []BlogResponse {
	out := make([]BlogResponse, 0, len(blogs))
	for i := range blogs {
		out = append(out, ToBlogResponse(&blogs[i]))
	}
	return out
}
