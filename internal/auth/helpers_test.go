package auth

import (
	"context"
	"html/template"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database/users"
	"github.com/mrlokans/catalog/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "correct horse battery"

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type testEnv struct {
	db      *gorm.DB
	service *Service
	clock   fakeClock
	cfg     config.Auth
}

func newTestEnv(t *testing.T, mode config.AuthMode) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&entities.User{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	cfg := config.Auth{
		Mode:             mode,
		SessionLifetime:  time.Hour,
		BcryptCost:       bcrypt.MinCost,
		SecureCookies:    false,
		MaxLoginAttempts: 3,
		LockoutDuration:  10 * time.Minute,
	}
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC))

	return &testEnv{
		db:      db,
		service: NewService(users.NewRepository(db), cfg, clock),
		clock:   clock,
		cfg:     cfg,
	}
}

func (e *testEnv) createUser(t *testing.T, username string) *entities.User {
	t.Helper()
	user, err := e.service.CreateUser(context.Background(), username, username+"@library.example", testPassword, entities.UserRoleLibrarian)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (e *testEnv) sessionManager(t *testing.T) *SessionManager {
	t.Helper()
	sqlDB, err := e.db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sm, err := NewSessionManager(sqlDB, e.cfg)
	if err != nil {
		t.Fatalf("NewSessionManager() error = %v", err)
	}
	return sm
}

// authTemplates stands in for the application templates: each page prints
// its error so tests can assert on it.
var authTemplates = template.Must(template.New("auth").Parse(
	`{{define "login"}}login|{{.Error}}|{{.Next}}{{end}}` +
		`{{define "setup"}}setup|{{.Error}}{{end}}`))
