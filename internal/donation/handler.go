// File: internal/donation/handler.go
package donation

import (
	"errors"
	"mime/multipart"
	"time"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for donations.
type Handler struct {
	service *Service
	cfg     *config.Config
	logger  *zap.Logger
}

// NewHandler creates a new donation handler.
func NewHandler(service *Service, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
		logger:  logger.Named("DonationHandler"),
	}
}

// RegisterRoutes sets up donation routes. Reads are public, writes need auth,
// and the maintenance surface is restricted to admins.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	donations := rg.Group("/donations")
	{
		donations.GET("", h.List)
		donations.GET("/:id", h.GetByID)

		authed := donations.Group("")
		authed.Use(authMW)
		{
			authed.POST("", h.Create)
			authed.DELETE("/:id", h.Delete)
			authed.POST("/:id/claims", h.Claim)
			authed.PATCH("/:id/claims/:claimId", h.UpdateClaimStatus)
			authed.POST("/:id/complete", h.Complete)
		}
	}

	admin := rg.Group("/donations/admin")
	admin.Use(authMW, adminRoleMW)
	{
		admin.POST("/claims/sweep", h.SweepStaleClaims)
	}
}

// List returns donations, filterable by status.
func (h *Handler) List(c *gin.Context) {
	page, pageSize := common.GetPaginationParams(c)

	q := ListQuery{
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	donations, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("Failed to list donations", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}

	common.RespondPaginated(c, "Donations retrieved successfully.",
		ToDonationResponses(donations), common.NewPagination(total, page, pageSize))
}

// GetByID returns a single donation with its claims.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Donation retrieved successfully.", ToDonationResponse(d))
}

// Create lists a new donation owned by the authenticated user.
func (h *Handler) Create(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	var req CreateDonationRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	var images []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		images = form.File["images"]
	}

	d, err := h.service.Create(c.Request.Context(), userID, req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Donation created successfully.", ToDonationResponse(d))
}

// Claim records the authenticated user's claim on a donation.
func (h *Handler) Claim(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	d, err := h.service.Claim(c.Request.Context(), id, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondCreated(c, "Claim submitted successfully.", ToDonationResponse(d))
}

// UpdateClaimStatus lets the donor approve or reject a claim.
func (h *Handler) UpdateClaimStatus(c *gin.Context) {
	donationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	claimID, ok := parseIDParam(c, "claimId")
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	var req UpdateClaimStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	d, err := h.service.UpdateClaimStatus(c.Request.Context(), donationID, claimID, userID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Claim updated successfully.", ToDonationResponse(d))
}

// Complete marks the donation as handed over.
func (h *Handler) Complete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)

	d, err := h.service.Complete(c.Request.Context(), id, userID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Donation completed successfully.", ToDonationResponse(d))
}

// Delete removes a donation owned by the authenticated user.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserIDFromContext(c)
	role := middleware.GetUserRoleFromContext(c)

	if err := h.service.Delete(c.Request.Context(), id, userID, role); err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Donation deleted successfully.", nil)
}

// SweepStaleClaims reverts donations whose approved claim was never completed
// within the configured window. Same sweep the cron job runs, triggered on
// demand by an admin.
func (h *Handler) SweepStaleClaims(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)

	cutoff := time.Now().AddDate(0, 0, -h.cfg.ClaimExpiryDays)
	reverted, err := h.service.RevertStaleClaimed(c.Request.Context(), cutoff)
	if err != nil {
		h.logger.Error("Stale claim sweep failed", zap.Error(err))
		common.RespondWithError(c, common.ErrInternalServer)
		return
	}

	if claims != nil {
		h.logger.Info("Stale claim sweep triggered",
			zap.String("adminID", claims.UserID.String()),
			zap.Int64("reverted", reverted))
	}

	common.RespondOK(c, "Stale claims swept.", gin.H{"reverted": reverted})
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
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
