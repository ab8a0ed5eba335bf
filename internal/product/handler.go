// File: internal/product/handler.go
package product

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

// Handler handles HTTP requests for products.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new product handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("ProductHandler"),
	}
}

// RegisterRoutes sets up product routes. Reads are public, writes need auth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	products := rg.Group("/products")
	{
		products.GET("", h.List)
		products.GET("/:id", h.GetByID)

		authed := products.Group("")
		authed.Use(authMW)
		{
			authed.POST("", h.Create)
			authed.PUT("/:id", h.Update)
			authed.DELETE("/:id", h.Delete)
			authed.POST("/:id/like", h.ToggleLike)
			authed.POST("/:id/reviews", h.AddReview)
		}
	}
}

// List returns products matching the optional search, category and status filters.
func (h *Handler) List(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)

	q := ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   c.DefaultQuery("status", StatusActive),
		Page:     page,
		PageSize: pageSize,
	}

	products, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}

	common.RespondPaginated(c, "Products retrieved successfully.",
		ToProductResponses(products), common.NewPagination(total, page, pageSize))
}

// GetByID returns a single product with its reviews.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Product retrieved successfully.", ToProductResponse(p))
}

// Create adds a new product owned by the authenticated user. Accepts
// multipart form data with optional image files under the "images" field.
func (h *Handler) Create(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var images []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		images = form.File["images"]
	}

	p, err := h.service.Create(c.Request.Context(), userID, req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Product created successfully.", ToProductResponse(p))
}

// Update modifies a product owned by the authenticated user.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)
	role := middleware.GetUserRoleFromContext(c)

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	p, err := h.service.Update(c.Request.Context(), id, userID, role, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Product updated successfully.", ToProductResponse(p))
}

// Delete removes a product owned by the authenticated user.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)
	role := middleware.GetUserRoleFromContext(c)

	if err := h.service.Delete(c.Request.Context(), id, userID, role); err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Product deleted successfully.", nil)
}

// ToggleLike flips the authenticated user's like on a product.
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := parseIDParam(c)
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

// AddReview records the authenticated user's review of a product.
func (h *Handler) AddReview(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	p, err := h.service.AddReview(c.Request.Context(), id, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Review added successfully.", ToProductResponse(p))
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
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
