// File: internal/user/repository_test.go
package user

import (
	"context"
	"testing"

	"green_planet_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestGORMRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	email := "find@example.com"
	providerID := "g-100"
	usr := &User{
		Email:        &email,
		AuthProvider: common.AuthProviderGoogle,
		ProviderID:   &providerID,
		Role:         common.RoleUser,
	}
	require.NoError(t, repo.Create(ctx, usr))
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", usr.ID.String())

	byID, err := repo.FindByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byID.ID)

	byEmail, err := repo.FindByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byEmail.ID)

	byProvider, err := repo.FindByProvider(ctx, common.AuthProviderGoogle, providerID)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, byProvider.ID)
}

func TestGORMRepository_DuplicateEmailRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	email := "dup@example.com"
	first := &User{Email: &email, AuthProvider: common.AuthProviderLocal, Role: common.RoleUser}
	require.NoError(t, repo.Create(ctx, first))

	second := &User{Email: &email, AuthProvider: common.AuthProviderLocal, Role: common.RoleUser}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))
}

func TestGORMRepository_DuplicateProviderIDRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	providerID := "g-dup"
	emailA := "a@example.com"
	emailB := "b@example.com"

	first := &User{Email: &emailA, AuthProvider: common.AuthProviderGoogle, ProviderID: &providerID, Role: common.RoleUser}
	require.NoError(t, repo.Create(ctx, first))

	second := &User{Email: &emailB, AuthProvider: common.AuthProviderGoogle, ProviderID: &providerID, Role: common.RoleUser}
	err := repo.Create(ctx, second)
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))
}

func TestGORMRepository_LinkProviderIdentity(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	email := "link@example.com"
	usr := &User{Email: &email, AuthProvider: common.AuthProviderLocal, Role: common.RoleUser, PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, usr))

	providerID := "g-link"
	usr.ProviderID = &providerID
	usr.AuthProvider = common.AuthProviderGoogle
	require.NoError(t, repo.Update(ctx, usr))

	found, err := repo.FindByProvider(ctx, common.AuthProviderGoogle, providerID)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, found.ID)
	// Local credentials survive the link.
	assert.Equal(t, "hash", found.PasswordHash)
}

func TestGORMRepository_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGORMRepository(db)
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "missing@example.com")
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrNotFound))

	_, err = repo.FindByProvider(ctx, common.AuthProviderGoogle, "missing")
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrNotFound))
}
