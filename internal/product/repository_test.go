// File: internal/product/repository_test.go
package product

import (
	"context"
	"testing"

	"green_planet_backend/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}, &Review{}, &ProductLike{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, repo Repository, name, category string) *Product {
	t.Helper()
	p := &Product{
		Name:        name,
		Description: "A lovely " + name,
		Price:       12.5,
		Category:    category,
		Stock:       3,
		UserID:      uuid.New(),
		Status:      StatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestProductRepository_CreateAndFind(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))

	p := seedProduct(t, repo, "Monstera", CategoryIndoorPlants)

	found, err := repo.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monstera", found.Name)
	assert.Equal(t, CategoryIndoorPlants, found.Category)
}

func TestProductRepository_ListFiltersAndSearch(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	seedProduct(t, repo, "Monstera Deliciosa", CategoryIndoorPlants)
	seedProduct(t, repo, "Lavender", CategoryHerbs)
	seedProduct(t, repo, "Rose Bush", CategoryOutdoorPlants)

	items, total, err := repo.List(ctx, ListQuery{Status: StatusActive, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 3)

	items, total, err = repo.List(ctx, ListQuery{Category: CategoryHerbs, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Lavender", items[0].Name)

	items, total, err = repo.List(ctx, ListQuery{Search: "monstera", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Monstera Deliciosa", items[0].Name)
}

func TestProductRepository_SecondReviewBySameUserRejected(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	p := seedProduct(t, repo, "Fern", CategoryIndoorPlants)
	reviewer := uuid.New()

	first := &Review{ProductID: p.ID, UserID: reviewer, Rating: 5, Comment: "Great"}
	require.NoError(t, repo.AddReview(ctx, first))

	second := &Review{ProductID: p.ID, UserID: reviewer, Rating: 1, Comment: "Changed my mind"}
	err := repo.AddReview(ctx, second)
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrConflict))

	// A different user may still review.
	other := &Review{ProductID: p.ID, UserID: uuid.New(), Rating: 4, Comment: "Nice"}
	require.NoError(t, repo.AddReview(ctx, other))
}

func TestProductRepository_RecalculateRating(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	p := seedProduct(t, repo, "Cactus", CategorySucculents)
	require.NoError(t, repo.AddReview(ctx, &Review{ProductID: p.ID, UserID: uuid.New(), Rating: 5, Comment: "A"}))
	require.NoError(t, repo.AddReview(ctx, &Review{ProductID: p.ID, UserID: uuid.New(), Rating: 3, Comment: "B"}))

	require.NoError(t, repo.RecalculateRating(ctx, p.ID))

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, found.Rating, 0.001)
	assert.Equal(t, 2, found.NumReviews)
}

func TestProductRepository_ToggleLike(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))
	ctx := context.Background()

	p := seedProduct(t, repo, "Bonsai", CategoryIndoorPlants)
	fan := uuid.New()

	liked, err := repo.ToggleLike(ctx, p.ID, fan)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repo.ToggleLike(ctx, p.ID, fan)
	require.NoError(t, err)
	assert.False(t, liked)

	found, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, found.Likes)
}

func TestProductRepository_DeleteMissing(t *testing.T) {
	repo := NewGORMRepository(setupTestDB(t))

	err := repo.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, common.IsErrCode(err, common.ErrNotFound))
}
