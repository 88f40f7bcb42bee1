package audit

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

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func uintPtr(v uint) *uint { return &v }

func TestRepository_LogEvent(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCreate,
		Action:      "genre_create",
		Description: "Created genre Fantasy",
		EntityType:  "genre",
		EntityID:    uintPtr(3),
		Status:      entities.AuditStatusSuccess,
	}

	require.NoError(t, repo.LogEvent(context.Background(), event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
			UserID:     1,
			EventType:  entities.AuditEventUpdate,
			Action:     "bookinstance_update",
			EntityType: "bookinstance",
			EntityID:   uintPtr(uint(i%3 + 1)),
			Status:     entities.AuditStatusSuccess,
			CreatedAt:  time.Now().Add(time.Duration(-i) * time.Hour),
		}))
	}
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
			UserID:     2,
			EventType:  entities.AuditEventDelete,
			Action:     "genre_delete",
			EntityType: "genre",
			Status:     entities.AuditStatusSuccess,
		}))
	}

	t.Run("all events", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, Filter{}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(20), total)
		assert.Len(t, events, 20)
	})

	t.Run("by type", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, Filter{EventType: entities.AuditEventDelete}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, e := range events {
			assert.Equal(t, entities.AuditEventDelete, e.EventType)
		}
	})

	t.Run("by entity", func(t *testing.T) {
		_, total, err := repo.GetEvents(ctx, Filter{EntityType: "bookinstance", EntityID: 1}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("by user", func(t *testing.T) {
		_, total, err := repo.GetEvents(ctx, Filter{UserID: 1}, 50, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, Filter{UserID: 1}, 5, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 5)

		next, _, err := repo.GetEvents(ctx, Filter{UserID: 1}, 5, 5)
		require.NoError(t, err)
		assert.Len(t, next, 5)
		assert.NotEqual(t, events[0].ID, next[0].ID)
	})

	t.Run("most recent first", func(t *testing.T) {
		events, _, err := repo.GetEvents(ctx, Filter{UserID: 1}, 10, 0)
		require.NoError(t, err)
		for i := 1; i < len(events); i++ {
			assert.False(t, events[i].CreatedAt.After(events[i-1].CreatedAt))
		}
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventCreate,
		Action:    "old_create",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-48 * time.Hour),
	}))
	require.NoError(t, repo.LogEvent(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventDelete,
		Action:    "new_delete",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: now.Add(-1 * time.Hour),
	}))

	deleted, err := repo.DeleteOldEvents(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := repo.GetEvents(ctx, Filter{}, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "new_delete", events[0].Action)
}

func TestRepository_GetEventByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	event := &entities.AuditEvent{
		EventType: entities.AuditEventAuth,
		Action:    "login",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, repo.LogEvent(ctx, event))

	found, err := repo.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "login", found.Action)

	_, err = repo.GetEventByID(ctx, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
