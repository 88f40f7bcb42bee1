package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/metrics"
	"github.com/mrlokans/catalog/internal/readonly"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Catalog stores
	Genres    GenreStore
	Books     BookStore
	Instances BookInstanceStore

	// Audit trail (optional)
	Auditor     Auditor
	AuditReader AuditReader

	// Task queue (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int

	// Health checks
	Database Pinger
	Version  string

	// Authentication (optional)
	AuthConfig     config.Auth
	AuthService    *auth.Service
	AuthAuditor    auth.Auditor
	SessionManager *auth.SessionManager
	CSRFSecret     []byte

	ReadOnly *readonly.Middleware

	// Metrics (optional)
	Metrics     *metrics.Metrics
	MetricsPath string

	// UI paths. An empty TemplatesPath uses the embedded templates.
	TemplatesPath string
	StaticPath    string

	Logger *zap.Logger
	Clock  Clock
}
