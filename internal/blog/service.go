// File: internal/blog/service.go
package blog

import (
	"context"
	"fmt"
	"mime/multipart"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/filestorage"
	"green_planet_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

// Service contains the business logic for blog posts.
type Service struct {
	repo        Repository
	userService shared.Service
	files       *filestorage.Service
	logger      *zap.Logger
}

// NewService creates a new blog service.
func NewService(repo Repository, userService shared.Service, files *filestorage.Service, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		userService: userService,
		files:       files,
		logger:      logger.Named("BlogService"),
	}
}

// Create stores a new blog post authored by ownerID. The slug is derived from
// the title and made unique with a numeric suffix when needed.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateBlogRequest, images []*multipart.FileHeader) (*Blog, error) {
	authorName, err := s.resolveAuthorName(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	blogSlug, err := s.uniqueSlug(ctx, req.Title)
	if err != nil {
		return nil, err
	}

	var imageURLs []string
	for _, fh := range images {
		url, saveErr := s.files.SaveImage(fh)
		if saveErr != nil {
			return nil, common.ErrBadRequest.WithDetails(saveErr.Error())
		}
		imageURLs = append(imageURLs, url)
	}

	status := req.Status
	if status == "" {
		status = StatusPublished
	}

	b := &Blog{
		Title:           req.Title,
		Slug:            blogSlug,
		PlantType:       req.PlantType,
		Content:         req.Content,
		CultivationTips: req.CultivationTips,
		AuthorName:      authorName,
		Images:          imageURLs,
		Tags:            req.Tags,
		UserID:          ownerID,
		Status:          status,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("Failed to create blog", zap.Error(err))
		return nil, err
	}
	return b, nil
}

// GetByIDOrSlug resolves a blog post by UUID first, then by slug.
func (s *Service) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*Blog, error) {
	if id, err := uuid.Parse(idOrSlug); err == nil {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.FindBySlug(ctx, idOrSlug)
}

// List returns blog posts matching the query.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Blog, int64, error) {
	return s.repo.List(ctx, q)
}

// Update applies changes to a blog post. Only the owner or an admin may update.
// A title change regenerates the slug.
func (s *Service) Update(ctx context.Context, id, actorID uuid.UUID, actorRole string, req UpdateBlogRequest) (*Blog, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != actorID && actorRole != common.RoleAdmin {
		return nil, common.ErrForbidden.WithDetails("Only the author may modify this blog post.")
	}

	if req.Title != nil && *req.Title != b.Title {
		newSlug, slugErr := s.uniqueSlug(ctx, *req.Title)
		if slugErr != nil {
			return nil, slugErr
		}
		b.Title = *req.Title
		b.Slug = newSlug
	}
	if req.PlantType != nil {
		b.PlantType = *req.PlantType
	}
	if req.Content != nil {
		b.Content = *req.Content
	}
	if req.CultivationTips != nil {
		b.CultivationTips = *req.CultivationTips
	}
	if req.Tags != nil {
		b.Tags = *req.Tags
	}
	if req.Status != nil {
		b.Status = *req.Status
	}

	if err := s.repo.Update(ctx, b); err != nil {
		s.logger.Error("Failed to update blog", zap.String("blogID", id.String()), zap.Error(err))
		return nil, err
	}
	return b, nil
}

// Delete removes a blog post. Only the owner or an admin may delete.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b.UserID != actorID && actorRole != common.RoleAdmin {
		return common.ErrForbidden.WithDetails("Only the author may delete this blog post.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range b.Images {
		s.files.Delete(img)
	}
	return nil
}

// AddComment records a comment under the commenter's display name.
func (s *Service) AddComment(ctx context.Context, blogID, userID uuid.UUID, req AddCommentRequest) (*Blog, error) {
	if _, err := s.repo.FindByID(ctx, blogID); err != nil {
		return nil, err
	}

	authorName, err := s.resolveAuthorName(ctx, userID)
	if err != nil {
		return nil, err
	}

	comment := &Comment{
		BlogID:     blogID,
		UserID:     userID,
		AuthorName: authorName,
		Comment:    req.Comment,
	}
	if err := s.repo.AddComment(ctx, comment); err != nil {
		s.logger.Error("Failed to add comment", zap.String("blogID", blogID.String()), zap.Error(err))
		return nil, common.ErrInternalServer
	}

	return s.repo.FindByID(ctx, blogID)
}

// ToggleLike flips the user's like on a blog post and reports the new state.
func (s *Service) ToggleLike(ctx context.Context, blogID, userID uuid.UUID) (bool, error) {
	if _, err := s.repo.FindByID(ctx, blogID); err != nil {
		return false, err
	}
	return s.repo.ToggleLike(ctx, blogID, userID)
}

func (s *Service) resolveAuthorName(ctx context.Context, userID uuid.UUID) (string, error) {
	usr, err := s.userService.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if usr.Name != nil && *usr.Name != "" {
		return *usr.Name, nil
	}
	if usr.Email != nil {
		return *usr.Email, nil
	}
	return "Anonymous", nil
}

func (s *Service) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "post"
	}

	candidate := base
	for i := 2; ; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", common.ErrInternalServer
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
