// File: internal/user/handler.go
package user

import (
	"errors"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/middleware"
	"green_planet_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the current user's profile.
type Handler struct {
	service shared.Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service shared.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the profile routes. All of them require authentication.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users")
	users.Use(authMW)
	{
		users.GET("/me", h.GetMe)
		users.PATCH("/me", h.UpdateMe)
	}
}

// GetMe returns the authenticated user's profile.
func (h *Handler) GetMe(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	usr, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "User profile retrieved successfully.", SharedToResponse(usr))
}

type updateProfileRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=255"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url,max=512"`
}

// UpdateMe updates the authenticated user's profile fields.
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(validationErrs)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid request body."))
		return
	}

	usr, err := h.service.UpdateProfile(c.Request.Context(), userID, shared.UpdateProfileRequest{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Profile updated successfully.", SharedToResponse(usr))
}
