package audit

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

func setupTestService(t *testing.T) (*Service, *gorm.DB) {
	return setupTestServiceWithClock(t, nil)
}

func setupTestServiceWithClock(t *testing.T, clock clockwork.Clock) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "audit.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.AuditEvent{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Async writes share one connection instead of racing for the file lock.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return NewService(auditRepo.NewRepository(db), zaptest.NewLogger(t), clock), db
}

func TestService_Log(t *testing.T) {
	svc, db := setupTestService(t)

	event := &entities.AuditEvent{
		EventType: entities.AuditEventCreate,
		Action:    "genre_create",
		Status:    entities.AuditStatusSuccess,
	}
	require.NoError(t, svc.Log(context.Background(), event))

	var saved entities.AuditEvent
	require.NoError(t, db.First(&saved, event.ID).Error)
	assert.Equal(t, "genre_create", saved.Action)
}

func TestService_LogChanges(t *testing.T) {
	svc, db := setupTestService(t)
	actor := Actor{UserID: 7, IPAddress: "10.0.0.1", UserAgent: "test-agent"}

	svc.LogCreate(actor, "genre", 3, "Fantasy")
	svc.LogUpdate(actor, "bookinstance", 9, "Gollancz, 2011")
	svc.LogDelete(actor, "genre", 3, "Fantasy")
	svc.Wait()

	var events []entities.AuditEvent
	require.NoError(t, db.Order("id ASC").Find(&events).Error)
	require.Len(t, events, 3)

	byAction := map[string]entities.AuditEvent{}
	for _, e := range events {
		byAction[e.Action] = e
	}

	created := byAction["genre_create"]
	assert.Equal(t, entities.AuditEventCreate, created.EventType)
	assert.Equal(t, "Created genre: Fantasy", created.Description)
	require.NotNil(t, created.EntityID)
	assert.Equal(t, uint(3), *created.EntityID)
	assert.Equal(t, uint(7), created.UserID)
	assert.Equal(t, "10.0.0.1", created.IPAddress)

	assert.Equal(t, entities.AuditEventUpdate, byAction["bookinstance_update"].EventType)
	assert.Equal(t, "Deleted genre: Fantasy", byAction["genre_delete"].Description)
}

func TestService_LogAuth(t *testing.T) {
	svc, db := setupTestService(t)

	svc.LogAuth(Actor{IPAddress: "127.0.0.1"}, "login", "admin", false)
	svc.Wait()

	var event entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "login").First(&event).Error)
	assert.Equal(t, entities.AuditEventAuth, event.EventType)
	assert.Equal(t, entities.AuditStatusFailed, event.Status)
	assert.Equal(t, "login by admin", event.Description)
}

func TestService_LogMaintenance(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.LogMaintenance(ctx, "overdue_scan", "3 overdue copies", map[string]any{"overdue": 3}, nil))
	require.NoError(t, svc.LogMaintenance(ctx, "audit_cleanup", "cleanup failed", nil, errors.New("disk full")))

	var ok entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "overdue_scan").First(&ok).Error)
	assert.Equal(t, entities.AuditStatusSuccess, ok.Status)
	assert.JSONEq(t, `{"overdue":3}`, ok.Metadata)

	var failed entities.AuditEvent
	require.NoError(t, db.Where("action = ?", "audit_cleanup").First(&failed).Error)
	assert.Equal(t, entities.AuditStatusFailed, failed.Status)
	assert.Equal(t, "disk full", failed.ErrorMsg)
}

func TestService_GetEventsAndCleanup(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventDelete,
		Action:    "genre_delete",
		Status:    entities.AuditStatusSuccess,
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	}))
	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventCreate,
		Action:    "genre_create",
		Status:    entities.AuditStatusSuccess,
	}))

	deleted, err := svc.DeleteOldEvents(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	events, total, err := svc.GetEvents(ctx, auditRepo.Filter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "genre_create", events[0].Action)
}

func TestService_CleanupUsesClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC))
	svc, _ := setupTestServiceWithClock(t, clock)
	ctx := context.Background()

	require.NoError(t, svc.Log(ctx, &entities.AuditEvent{
		EventType: entities.AuditEventCreate,
		Action:    "genre_create",
		Status:    entities.AuditStatusSuccess,
	}))

	events, _, err := svc.GetEvents(ctx, auditRepo.Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].CreatedAt.Equal(clock.Now()), events[0].CreatedAt)

	deleted, err := svc.DeleteOldEvents(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	clock.Advance(8 * 24 * time.Hour)
	deleted, err = svc.DeleteOldEvents(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("a", 20)
	got := truncate(long, 10)
	assert.Len(t, got, 10)
	assert.True(t, strings.HasSuffix(got, "..."))

	t.Run("keeps runes whole", func(t *testing.T) {
		got := truncate(strings.Repeat("é", 20), 10)
		assert.True(t, utf8.ValidString(got), got)
		assert.Equal(t, "ééé...", got)
		assert.LessOrEqual(t, len(got), 10)
	})
}
