// File: internal/blog/service_test.go
package blog

import (
	"context"
	"testing"

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

// stubUserService resolves every user id to a fixed display name.
type stubUserService struct {
	name string
}

func (s *stubUserService) Register(ctx context.Context, req shared.CreateUserRequest) (*shared.User, *shared.TokenResponse, error) {
	return nil, nil, common.ErrInternalServer
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (*shared.User, *shared.TokenResponse, error) {
	return nil, nil, common.ErrInternalServer
}

func (s *stubUserService) GetUserByID(ctx context.Context, id uuid.UUID) (*shared.User, error) {
	name := s.name
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
	require.NoError(t, db.AutoMigrate(&Blog{}, &Comment{}, &BlogLike{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := NewGORMRepository(setupTestDB(t))
	files, err := filestorage.NewService(&config.Config{
		UploadDir:       t.TempDir(),
		MaxUploadSizeMB: 1,
		PublicBaseURL:   "http://localhost:8080",
	}, zap.NewNop())
	require.NoError(t, err)
	return NewService(repo, &stubUserService{name: "Green Thumb"}, files, zap.NewNop())
}

func createReq() CreateBlogRequest {
	return CreateBlogRequest{
		Title:           "Caring for Monstera",
		PlantType:       "Monstera",
		Content:         "Water weekly.",
		CultivationTips: "Bright indirect light.",
		Tags:            []string{"indoor", "tropical"},
	}
}

func TestBlogService_CreateGeneratesSlugAndAuthor(t *testing.T) {
	svc := newTestService(t)

	b, err := svc.Create(context.Background(), uuid.New(), createReq(), nil)

	require.NoError(t, err)
	assert.Equal(t, "caring-for-monstera", b.Slug)
	assert.Equal(t, "Green Thumb", b.AuthorName)
	assert.Equal(t, StatusPublished, b.Status)
}

func TestBlogService_DuplicateTitlesGetSuffixedSlugs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)
	second, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)
	third, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)

	assert.Equal(t, "caring-for-monstera", first.Slug)
	assert.Equal(t, "caring-for-monstera-2", second.Slug)
	assert.Equal(t, "caring-for-monstera-3", third.Slug)
}

func TestBlogService_GetByIDOrSlug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)

	byID, err := svc.GetByIDOrSlug(ctx, b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, b.ID, byID.ID)

	bySlug, err := svc.GetByIDOrSlug(ctx, b.Slug)
	require.NoError(t, err)
	assert.Equal(t, b.ID, bySlug.ID)

	_, err = svc.GetByIDOrSlug(ctx, "no-such-post")
	assert.True(t, common.IsErrCode(err, common.ErrNotFound))
}

func TestBlogService_UpdateRequiresOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	b, err := svc.Create(ctx, owner, createReq(), nil)
	require.NoError(t, err)

	newTitle := "Monstera Masterclass"
	_, err = svc.Update(ctx, b.ID, uuid.New(), common.RoleUser, UpdateBlogRequest{Title: &newTitle})
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrForbidden))

	updated, err := svc.Update(ctx, b.ID, owner, common.RoleUser, UpdateBlogRequest{Title: &newTitle})
	require.NoError(t, err)
	assert.Equal(t, "Monstera Masterclass", updated.Title)
	assert.Equal(t, "monstera-masterclass", updated.Slug)
}

func TestBlogService_AddCommentUsesCommenterName(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)

	updated, err := svc.AddComment(ctx, b.ID, uuid.New(), AddCommentRequest{Comment: "Very helpful!"})
	require.NoError(t, err)
	require.Len(t, updated.Comments, 1)
	assert.Equal(t, "Green Thumb", updated.Comments[0].AuthorName)
	assert.Equal(t, "Very helpful!", updated.Comments[0].Comment)
}

func TestBlogService_ToggleLike(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	b, err := svc.Create(ctx, uuid.New(), createReq(), nil)
	require.NoError(t, err)

	fan := uuid.New()
	liked, err := svc.ToggleLike(ctx, b.ID, fan)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, b.ID, fan)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestBlogService_DeleteRequiresOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()

	b, err := svc.Create(ctx, owner, createReq(), nil)
	require.NoError(t, err)

	err = svc.Delete(ctx, b.ID, uuid.New(), common.RoleUser)
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, b.ID, owner, common.RoleUser))
	_, err = svc.GetByIDOrSlug(ctx, b.ID.String())
	assert.True(t, common.IsErrCode(err, common.ErrNotFound))
}
