// File: internal/blog/handler.go
package blog

import (
	"errors"
	"mime/multipart"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for blog posts.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new blog handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("BlogHandler"),
	}
}

// RegisterRoutes sets up blog routes. Reads are public, writes need auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	blogs := rg.Group("/blogs")
	{
		blogs.GET("", h.List)
		blogs.GET("/:idOrSlug", h.Get)

		authed := blogs.Group("")
		authed.Use(authMW)
		{
			authed.POST("", h.Create)
			authed.PUT("/:idOrSlug", h.Update)
			authed.DELETE("/:idOrSlug", h.Delete)
			authed.POST("/:idOrSlug/like", h.ToggleLike)
			authed.POST("/:idOrSlug/comments", h.AddComment)
		}
	}
}

// List returns published blog posts; drafts stay hidden from this listing.
func (h *Handler) List(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)

	q := ListQuery{
		PlantType: c.Query("plant_type"),
		Tag:       c.Query("tag"),
		Status:    StatusPublished,
		Page:      page,
		PageSize:  pageSize,
	}

	blogs, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list blogs", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}

	common.RespondPaginated(c, "Blogs retrieved successfully.",
		ToBlogResponses(blogs), common.NewPagination(total, page, pageSize))
}

// Get returns a single blog post, addressed by id or slug.
func (h *Handler) Get(c *gin.Context) {
	b, err := h.service.GetByIDOrSlug(c.Request.Context(), c.Param("idOrSlug"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Blog retrieved successfully.", ToBlogResponse(b))
}

// Create adds a new blog post authored by the authenticated user.
func (h *Handler) Create(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req CreateBlogRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var images []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		images = form.File["images"]
	}

	b, err := h.service.Create(c.Request.Context(), userID, req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Blog created successfully.", ToBlogResponse(b))
}

// Update modifies a blog post authored by the authenticated user.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseBlogID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)
	role := middleware.GetUserRoleFromContext(c)

	var req UpdateBlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	b, err := h.service.Update(c.Request.Context(), id, userID, role, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Blog updated successfully.", ToBlogResponse(b))
}

// Delete removes a blog post authored by the authenticated user.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseBlogID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)
	role := middleware.GetUserRoleFromContext(c)

	if err := h.service.Delete(c.Request.Context(), id, userID, role); err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Blog deleted successfully.", nil)
}

// ToggleLike flips the authenticated user's like on a blog post.
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := parseBlogID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	liked, err := h.service.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Like updated.", gin.H{"liked": liked})
}

// AddComment records the authenticated user's comment on a blog post.
func (h *Handler) AddComment(c *gin.Context) {
	id, ok := parseBlogID(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	b, err := h.service.AddComment(c.Request.Context(), id, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Comment added successfully.", ToBlogResponse(b))
}

// Mutations address blog posts by id only; slugs are read aliases.
func parseBlogID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("idOrSlug"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid id format."))
		return uuid.Nil, false
	}
	return id, true
}

func respondBindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
		return
	}
	common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request body."))
}
