// File: internal/donation/service.go
package donation

import (
	"context"
	"mime/multipart"
	"time"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/filestorage"
	"green_planet_backend/internal/shared"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service contains the business logic for donations.
type Service struct {
	repo        Repository
	userService shared.Service
	files       *filestorage.Service
	logger      *zap.Logger
}

// NewService creates a new donation service.
func NewService(repo Repository, userService shared.Service, files *filestorage.Service, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		userService: userService,
		files:       files,
		logger:      logger.Named("DonationService"),
	}
}

// Create lists a new donation owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req CreateDonationRequest, images []*multipart.FileHeader) (*Donation, error) {
	donorName, err := s.resolveDonorName(ctx, ownerID)
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

	d := &Donation{
		PlantName:          req.PlantName,
		Description:        req.Description,
		Location:           req.Location,
		DonorName:          donorName,
		Condition:          req.Condition,
		Size:               req.Size,
		PickupInstructions: req.PickupInstructions,
		Images:             imageURLs,
		UserID:             ownerID,
		Status:             StatusAvailable,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		s.logger.Error("Failed to create donation", zap.Error(err))
		return nil, common.ErrInternalServer
	}
	return d, nil
}

// GetByID returns a single donation with its claims.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns donations matching the query.
func (s *Service) List(ctx context.Context, q ListQuery) ([]Donation, int64, error) {
	return s.repo.List(ctx, q)
}

// Claim records the user's request to receive the donation. Donors cannot
// claim their own listing; a second claim by the same user is rejected by
// the storage layer.
func (s *Service) Claim(ctx context.Context, donationID, userID uuid.UUID, req ClaimRequest) (*Donation, error) {
	d, err := s.repo.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.UserID == userID {
		return nil, common.ErrForbidden.WithDetails("You cannot claim your own donation.")
	}
	if d.Status != StatusAvailable {
		return nil, common.ErrConflict.WithDetails("This donation is no longer available.")
	}

	claim := &DonationClaim{
		DonationID: donationID,
		UserID:     userID,
		Message:    req.Message,
		Status:     ClaimStatusPending,
	}
	if err := s.repo.AddClaim(ctx, claim); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, donationID)
}

// UpdateClaimStatus is the donor's decision on a claim. Approving a claim
// marks the donation claimed and rejects every other pending claim.
func (s *Service) UpdateClaimStatus(ctx context.Context, donationID, claimID, actorID uuid.UUID, req UpdateClaimStatusRequest) (*Donation, error) {
	d, err := s.repo.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.UserID != actorID {
		return nil, common.ErrForbidden.WithDetails("Only the donor may decide on claims.")
	}

	claim, err := s.repo.FindClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.DonationID != donationID {
		return nil, common.ErrNotFound.WithDetails("Claim not found.")
	}
	if claim.Status != ClaimStatusPending {
		return nil, common.ErrConflict.WithDetails("This claim has already been decided.")
	}

	claim.Status = req.Status
	if req.Status == ClaimStatusApproved {
		now := time.Now()
		claim.ApprovedAt = &now
	}
	if err := s.repo.UpdateClaim(ctx, claim); err != nil {
		s.logger.Error("Failed to update claim", zap.String("claimID", claimID.String()), zap.Error(err))
		return nil, common.ErrInternalServer
	}

	if req.Status == ClaimStatusApproved {
		if err := s.repo.RejectOtherPendingClaims(ctx, donationID, claimID); err != nil {
			s.logger.Error("Failed to reject competing claims", zap.String("donationID", donationID.String()), zap.Error(err))
			return nil, common.ErrInternalServer
		}
		d.Status = StatusClaimed
		if err := s.repo.Update(ctx, d); err != nil {
			s.logger.Error("Failed to mark donation claimed", zap.String("donationID", donationID.String()), zap.Error(err))
			return nil, common.ErrInternalServer
		}
	}

	return s.repo.FindByID(ctx, donationID)
}

// Complete marks a claimed donation as handed over. Donor only.
func (s *Service) Complete(ctx context.Context, donationID, actorID uuid.UUID) (*Donation, error) {
	d, err := s.repo.FindByID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.UserID != actorID {
		return nil, common.ErrForbidden.WithDetails("Only the donor may complete a donation.")
	}
	if d.Status != StatusClaimed {
		return nil, common.ErrConflict.WithDetails("Only a claimed donation can be completed.")
	}

	d.Status = StatusCompleted
	if err := s.repo.Update(ctx, d); err != nil {
		s.logger.Error("Failed to complete donation", zap.String("donationID", donationID.String()), zap.Error(err))
		return nil, common.ErrInternalServer
	}
	return d, nil
}

// Delete removes a donation. Only the donor or an admin may delete.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, actorRole string) error {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if d.UserID != actorID && actorRole != common.RoleAdmin {
		return common.ErrForbidden.WithDetails("Only the donor may delete this donation.")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	for _, img := range d.Images {
		s.files.Delete(img)
	}
	return nil
}

// RevertStaleClaimed returns donations whose approved claim is older than the
// given cutoff to the available pool. Used by the scheduled sweep.
func (s *Service) RevertStaleClaimed(ctx context.Context, olderThan time.Time) (int64, error) {
	return s.repo.RevertStaleClaimed(ctx, olderThan)
}

func (s *Service) resolveDonorName(ctx context.Context, userID uuid.UUID) (string, error) {
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
