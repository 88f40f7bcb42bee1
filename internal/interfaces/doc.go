// Package interfaces lists the seams between the catalog's layers.
//
// Consumers declare the narrowest interface they need next to the code that
// uses it; checks.go pins the concrete types to those interfaces.
//
// # Data Access Interfaces
//
//   - GenreStore, BookStore, BookInstanceStore: catalog persistence (internal/http/stores.go)
//   - Pinger: database health (internal/http/stores.go)
//   - UserStore: librarian accounts (internal/auth/service.go)
//
// # Audit Interfaces
//
//   - Auditor, AuditReader: change log for handlers (internal/http/stores.go)
//   - Auditor: login and setup events (internal/auth/handlers.go)
//   - MaintenanceRecorder, AuditEventCleaner: background jobs (internal/tasks)
//
// # Background Work Interfaces
//
//   - OverdueFinder: loaned copies past due (internal/tasks/overdue.go)
//   - TaskQueue: manual task runs (internal/http/stores.go)
//   - TaskEnqueuer: cron jobs (internal/scheduler/maintenance.go)
//
// # Adding a Catalog Entity
//
// To add a new record type (e.g., authors):
//
//  1. Add the entity to internal/entities and to AutoMigrate in internal/database.
//
//  2. Create sub-package internal/database/authors with
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Declare AuthorStore in internal/http/stores.go and a controller beside it.
//
//  4. Add the compile-time check here:
//
//     var _ http.AuthorStore = (*authors.Repository)(nil)
package interfaces
