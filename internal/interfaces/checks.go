package interfaces

// Compile-time checks that the concrete types satisfy the interfaces their
// consumers declare.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/database"
	"github.com/mrlokans/catalog/internal/database/bookinstances"
	"github.com/mrlokans/catalog/internal/database/books"
	"github.com/mrlokans/catalog/internal/database/genres"
	"github.com/mrlokans/catalog/internal/database/users"
	"github.com/mrlokans/catalog/internal/http"
	"github.com/mrlokans/catalog/internal/scheduler"
	"github.com/mrlokans/catalog/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ http.GenreStore = (*genres.Repository)(nil)
var _ http.BookStore = (*books.Repository)(nil)
var _ http.BookInstanceStore = (*bookinstances.Repository)(nil)
var _ http.Pinger = (*database.Database)(nil)
var _ auth.UserStore = (*users.Repository)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ http.Auditor = (*audit.Service)(nil)
var _ http.AuditReader = (*audit.Service)(nil)
var _ auth.Auditor = (*audit.Service)(nil)
var _ tasks.MaintenanceRecorder = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.OverdueFinder = (*bookinstances.Repository)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
