// File: internal/donation/model.go
package donation

import (
	"time"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
)

// Donation statuses.
const (
	StatusAvailable = "available"
	StatusClaimed   = "claimed"
	StatusCompleted = "completed"
)

// Claim statuses.
const (
	ClaimStatusPending  = "pending"
	ClaimStatusApproved = "approved"
	ClaimStatusRejected = "rejected"
)

// Plant conditions.
const (
	ConditionExcellent = "excellent"
	ConditionGood      = "good"
	ConditionFair      = "fair"
	ConditionNeedsCare = "needs-care"
)

// Plant sizes.
const (
	SizeSmall      = "small"
	SizeMedium     = "medium"
	SizeLarge      = "large"
	SizeExtraLarge = "extra-large"
)

// Donation is the GORM model for plant giveaway listings.
type Donation struct {
	common.BaseModel
	PlantName          string    `gorm:"size:100;not null"`
	Description        string    `gorm:"size:1000;not null"`
	Location           string    `gorm:"size:255;not null"`
	DonorName          string    `gorm:"size:100;not null"`
	Condition          string    `gorm:"size:16;not null"`
	Size               string    `gorm:"size:16;not null"`
	PickupInstructions string    `gorm:"size:1000"`
	Images             []string  `gorm:"serializer:json"`
	UserID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Status             string    `gorm:"size:16;not null;default:'available';index"`

	Claims []DonationClaim `gorm:"foreignKey:DonationID;constraint:OnDelete:CASCADE"`
}

func (Donation) TableName() string { return "donations" }

// DonationClaim is a request to receive a donated plant. The composite unique
// index enforces one claim per user per donation at the storage layer.
type DonationClaim struct {
	common.BaseModel
	DonationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_claims_donation_user"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_claims_donation_user"`
	Message    string     `gorm:"size:500"`
	Status     string     `gorm:"size:16;not null;default:'pending';index"`
	ApprovedAt *time.Time `gorm:""`
}

func (DonationClaim) TableName() string { return "donation_claims" }

// CreateDonationRequest is the payload for listing a donation.
type CreateDonationRequest struct {
	PlantName          string `form:"plant_name" json:"plant_name" binding:"required,min=1,max=100"`
	Description        string `form:"description" json:"description" binding:"required,min=1,max=1000"`
	Location           string `form:"location" json:"location" binding:"required,min=1,max=255"`
	Condition          string `form:"condition" json:"condition" binding:"required,oneof=excellent good fair needs-care"`
	Size               string `form:"size" json:"size" binding:"required,oneof=small medium large extra-large"`
	PickupInstructions string `form:"pickup_instructions" json:"pickup_instructions" binding:"omitempty,max=1000"`
}

// ClaimRequest is the payload for claiming a donation.
type ClaimRequest struct {
	Message string `json:"message" binding:"omitempty,max=500"`
}

// UpdateClaimStatusRequest is the donor's decision on a claim.
type UpdateClaimStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

// ListQuery captures the supported list filters.
type ListQuery struct {
	Status   string
	Page     int
	PageSize int
}

// ClaimResponse is the public representation of a claim.
type ClaimResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DonationResponse is the public representation of a donation.
type DonationResponse struct {
	ID                 string          `json:"id"`
	PlantName          string          `json:"plant_name"`
	Description        string          `json:"description"`
	Location           string          `json:"location"`
	DonorName          string          `json:"donor_name"`
	Condition          string          `json:"condition"`
	Size               string          `json:"size"`
	PickupInstructions string          `json:"pickup_instructions,omitempty"`
	Images             []string        `json:"images"`
	UserID             string          `json:"user_id"`
	Status             string          `json:"status"`
	Claims             []ClaimResponse `json:"claims,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToDonationResponse converts a donation model to its API representation.
func ToDonationResponse(d *Donation) DonationResponse {
	resp := DonationResponse{
		ID:                 d.ID.String(),
		PlantName:          d.PlantName,
		Description:        d.Description,
		Location:           d.Location,
		DonorName:          d.DonorName,
		Condition:          d.Condition,
		Size:               d.Size,
		PickupInstructions: d.PickupInstructions,
		Images:             d.Images,
		UserID:             d.UserID.String(),
		Status:             d.Status,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	for _, cl := range d.Claims {
		resp.Claims = append(resp.Claims, ClaimResponse{
			ID:         cl.ID.String(),
			UserID:     cl.UserID.String(),
			Message:    cl.Message,
			Status:     cl.Status,
			ApprovedAt: cl.ApprovedAt,
			CreatedAt:  cl.CreatedAt,
		})
	}
	return resp
}

// ToDonationResponses converts a slice of donations.
func ToDonationResponses(donations []Donation) []DonationResponse {
	out := make([]DonationResponse, 0, len(donations))
	for i := range donations {
		out = append(out, ToDonationResponse(&donations[i]))
	}
	return out
}
