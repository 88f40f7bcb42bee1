package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUsername = "username"
	SessionKeyRole     = "role"
	SessionKeyLoginAt  = "login_at"
)

const sessionsSchema = `CREATE TABLE IF NOT EXISTS sessions (
	token TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expiry REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`

func init() {
	gob.Register(entities.UserRole(""))
	gob.Register(time.Time{})
}

// SessionManager stores librarian sessions in the catalog SQLite database.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates the sessions table if needed and returns a
// manager backed by it. sqlDB is the handle underneath gorm.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	if _, err := sqlDB.Exec(sessionsSchema); err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)
	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "catalog_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession stores the user in a freshly renewed session.
func (sm *SessionManager) CreateSession(ctx context.Context, user *entities.User) error {
	// A new token on login prevents session fixation.
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}

	sm.Put(ctx, SessionKeyUserID, int(user.ID))
	sm.Put(ctx, SessionKeyUsername, user.Username)
	sm.Put(ctx, SessionKeyRole, user.Role)
	sm.Put(ctx, SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(ctx context.Context) error {
	return sm.Destroy(ctx)
}

// GetUserID returns the signed-in user ID, or 0.
func (sm *SessionManager) GetUserID(ctx context.Context) uint {
	return uint(sm.GetInt(ctx, SessionKeyUserID))
}

// IsAuthenticated returns true if the session belongs to a user.
func (sm *SessionManager) IsAuthenticated(ctx context.Context) bool {
	return sm.GetUserID(ctx) != 0
}

// SessionData holds the session information for a request.
type SessionData struct {
	UserID   uint
	Username string
	Role     entities.UserRole
	LoginAt  time.Time
}

// GetSessionData returns the stored user, or nil when nobody is signed in.
func (sm *SessionManager) GetSessionData(ctx context.Context) *SessionData {
	userID := sm.GetUserID(ctx)
	if userID == 0 {
		return nil
	}

	role, _ := sm.Get(ctx, SessionKeyRole).(entities.UserRole)
	loginAt, _ := sm.Get(ctx, SessionKeyLoginAt).(time.Time)

	return &SessionData{
		UserID:   userID,
		Username: sm.GetString(ctx, SessionKeyUsername),
		Role:     role,
		LoginAt:  loginAt,
	}
}
