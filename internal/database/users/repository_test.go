package users

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/entities"
)

func setupTestDB(t *testing.T) *Repository {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "users.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db)
}

func createUser(t *testing.T, repo *Repository) *entities.User {
	t.Helper()
	user := &entities.User{
		Username:     "librarian",
		Email:        "desk@library.example",
		PasswordHash: "hash",
		Role:         entities.UserRoleLibrarian,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRepository_CreateAndLookup(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo)
	assert.NotZero(t, user.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "librarian", byID.Username)

	byName, err := repo.GetByLogin(ctx, "librarian")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := repo.GetByLogin(ctx, "desk@library.example")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ExistsAndCount(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	createUser(t, repo)

	exists, err := repo.Exists(ctx, "librarian", "other@library.example")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "other", "desk@library.example")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "other", "other@library.example")
	require.NoError(t, err)
	assert.False(t, exists)

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_LoginBookkeeping(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, repo)

	lockedUntil := time.Now().Add(time.Hour)
	require.NoError(t, repo.RecordLoginFailure(ctx, user.ID, 5, &lockedUntil))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.FailedLoginCount)
	require.NotNil(t, got.LockedUntil)

	require.NoError(t, repo.RecordLoginSuccess(ctx, user.ID, time.Now()))

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FailedLoginCount)
	assert.Nil(t, got.LockedUntil)
	assert.NotNil(t, got.LastLoginAt)
}
