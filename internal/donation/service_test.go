// File: internal/donation/service_test.go
package donation

import (
	"context"
	"testing"
	"time"

	"green_planet_backend/internal/common"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/filestorage"
	"green_planet_backend/internal/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubUserService struct{}

func (s *stubUserService) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	return nil, nil, common.ErrInternalServer
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	return nil, nil, common.ErrInternalServer
}

func (s *stubUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	name := "Generous Gardener"
	return &shared.User{ID: id, Name: &name, Role: common.RoleUser}, nil
}

func (s *stubUserService) GetUserByEmail(ctx context.Context, email string) (*shared.User, error) {
	return nil, common.ErrNotFound
}

func (s *stubUserService) UpdateProfile(ctx context.Context, id uuid.UUID, req shared.UpdateProfileRequest) (*shared.User, error) {
	return nil, common.ErrInternalServer
}

func (s *stubUserService) FindOrCreateOrLinkProviderUser(ctx context.Context, claims shared.ProviderClaims) (*shared.User, bool, error) {
	return nil, false, common.ErrInternalServer
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Donation{}, &DonationClaim{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T) (*Service, Repository) {
	t.Helper()
	repo := NewGORMRepository(setupTestDB(t))
	files, err := filestorage.NewService(&config.Config{
		UploadDir:       t.TempDir(),
		MaxUploadSizeMB: 1,
		PublicBaseURL:   "http://localhost:8080",
	}, zap.NewNop())
	require.NoError(t, err)
	return NewService(repo, &stubUserService{}, files, zap.NewNop()), repo
}

func createReq() CreateDonationRequest {
	return CreateDonationRequest{
		PlantName:   "Spider Plant",
		Description: "Healthy and rooted",
		Location:    "Seattle, WA",
		Condition:   ConditionGood,
		Size:        SizeMedium,
	}
}

func TestDonationService_CreateAttachesDonor(t *testing.T) {
	svc, _ := newTestService(t)

	d, err := svc.Create(context.Background(), uuid.New(), createReq(), nil)

	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, d.Status)
	assert.Equal(t, "Generous Gardener", d.DonorName)
}

func TestDonationService_CannotClaimOwnDonation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, d.ID, donor, ClaimRequest{Message: "me please"})
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrForbidden))
}

func TestDonationService_SecondClaimBySameUserRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	d, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)

	claimant := uuid.New()
	_, err = svc.Claim(ctx, d.ID, claimant, ClaimRequest{})
	require.NoError(t, err)

	_, err = svc.Claim(ctx, d.ID, claimant, ClaimRequest{})
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))
}

func TestDonationService_ApproveClaimRejectsOthersAndMarksClaimed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	first, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{Message: "first"})
	require.NoError(t, err)
	require.Len(t, first.Claims, 1)
	winner := first.Claims[0]

	second, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{Message: "second"})
	require.NoError(t, err)
	require.Len(t, second.Claims, 2)

	winnerID := winner.ID

	// Only the donor may decide.
	_, err = svc.UpdateClaimStatus(ctx, d.ID, winnerID, uuid.New(), UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrForbidden))

	updated, err := svc.UpdateClaimStatus(ctx, d.ID, winnerID, donor, UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, updated.Status)

	statuses := map[uuid.UUID]string{}
	for _, cl := range updated.Claims {
		statuses[cl.ID] = cl.Status
	}
	assert.Equal(t, ClaimStatusApproved, statuses[winner.ID])
	for id, status := range statuses {
		if id != winner.ID {
			assert.Equal(t, ClaimStatusRejected, status)
		}
	}
}

func TestDonationService_DecidedClaimCannotBeRedecided(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	withClaim, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{})
	require.NoError(t, err)
	claimID := withClaim.Claims[0].ID

	_, err = svc.UpdateClaimStatus(ctx, d.ID, claimID, donor, UpdateClaimStatusRequest{Status: ClaimStatusRejected})
	require.NoError(t, err)

	_, err = svc.UpdateClaimStatus(ctx, d.ID, claimID, donor, UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))
}

func TestDonationService_CompleteRequiresClaimedStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, d.ID, donor)
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))

	withClaim, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{})
	require.NoError(t, err)
	claimID := withClaim.Claims[0].ID
	_, err = svc.UpdateClaimStatus(ctx, d.ID, claimID, donor, UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, d.ID, donor)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
}

func TestDonationService_RevertStaleClaimed(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	withClaim, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{})
	require.NoError(t, err)
	claimID := withClaim.Claims[0].ID
	_, err = svc.UpdateClaimStatus(ctx, d.ID, claimID, donor, UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.NoError(t, err)

	// Backdate the approval past the pickup window.
	claim, err := repo.FindClaim(ctx, claimID)
	require.NoError(t, err)
	old := time.Now().Add(-30 * 24 * time.Hour)
	claim.ApprovedAt = &old
	require.NoError(t, repo.UpdateClaim(ctx, claim))

	reverted, err := svc.RevertStaleClaimed(ctx, time.Now().Add(-14*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, reverted)

	refreshed, err := svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, refreshed.Status)

	staleClaim, err := repo.FindClaim(ctx, claimID)
	require.NoError(t, err)
	assert.Equal(t, ClaimStatusRejected, staleClaim.Status)
}

func TestDonationService_RevertStaleClaimedLeavesFreshClaims(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	donor := uuid.New()

	d, err := svc.Create(ctx, donor, createReq(), nil)
	require.NoError(t, err)

	withClaim, err := svc.Claim(ctx, d.ID, uuid.New(), ClaimRequest{})
	require.NoError(t, err)
	claimID := withClaim.Claims[0].ID
	_, err = svc.UpdateClaimStatus(ctx, d.ID, claimID, donor, UpdateClaimStatusRequest{Status: ClaimStatusApproved})
	require.NoError(t, err)

	reverted, err := svc.RevertStaleClaimed(ctx, time.Now().Add(-14*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, reverted)

	refreshed, err := svc.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClaimed, refreshed.Status)
}
