package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/catalog/internal/audit"
	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

// Each controller depends on the narrowest store it needs. The repositories
// under internal/database satisfy these interfaces.

// GenreStore provides genre persistence.
type GenreStore interface {
	List(ctx context.Context) ([]entities.Genre, error)
	GetByID(ctx context.Context, id uint) (*entities.Genre, error)
	FindByName(ctx context.Context, name string) (*entities.Genre, error)
	Create(ctx context.Context, genre *entities.Genre) error
	Update(ctx context.Context, genre *entities.Genre) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// BookStore provides read access to books.
type BookStore interface {
	List(ctx context.Context) ([]entities.Book, error)
	ListTitles(ctx context.Context) ([]entities.Book, error)
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	ListByGenre(ctx context.Context, genreID uint) ([]entities.Book, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// BookInstanceStore provides book copy persistence.
type BookInstanceStore interface {
	List(ctx context.Context) ([]entities.BookInstance, error)
	GetByID(ctx context.Context, id uint) (*entities.BookInstance, error)
	Create(ctx context.Context, instance *entities.BookInstance) error
	Update(ctx context.Context, instance *entities.BookInstance) error
	Delete(ctx context.Context, id uint) error
	CountByStatus(ctx context.Context, status entities.BookInstanceStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Auditor records catalog changes.
type Auditor interface {
	LogCreate(actor audit.Actor, entityType string, entityID uint, name string)
	LogUpdate(actor audit.Actor, entityType string, entityID uint, name string)
	LogDelete(actor audit.Actor, entityType string, entityID uint, name string)
}

// AuditReader pages through recorded events.
type AuditReader interface {
	GetEvents(ctx context.Context, filter auditRepo.Filter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Clock supplies the current time for default due dates.
type Clock interface {
	Now() time.Time
}
