// Package bookinstances provides database operations for physical book copies.
//
// Every read preloads the owning Book so handlers can render titles and links
// without a second lookup.
package bookinstances

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// Repository handles book copy database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book copies repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all copies with their books.
func (r *Repository) List(ctx context.Context) ([]entities.BookInstance, error) {
	var instances []entities.BookInstance
	err := r.db.WithContext(ctx).Preload("Book").Order("id ASC").Find(&instances).Error
	return instances, err
}

// GetByID retrieves a copy with its book.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	if err := r.db.WithContext(ctx).Preload("Book").First(&instance, id).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *Repository) Create(ctx context.Context, instance *entities.BookInstance) error {
	instance.DueBack = instance.DueBack.UTC()
	return r.db.WithContext(ctx).Omit("Book").Create(instance).Error
}

// Update overwrites the editable fields of an existing copy. It returns
// gorm.ErrRecordNotFound when no copy has the given ID.
func (r *Repository) Update(ctx context.Context, instance *entities.BookInstance) error {
	result := r.db.WithContext(ctx).Model(&entities.BookInstance{ID: instance.ID}).
		Updates(map[string]interface{}{
			"book_id":  instance.BookID,
			"imprint":  instance.Imprint,
			"status":   instance.Status,
			"due_back": instance.DueBack.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a copy by ID.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.BookInstance{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOverdue returns loaned copies whose due date is before now.
//
// SQLite compares the stored timestamps as text, so due dates are kept in
// UTC and now is bound in UTC as well.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]entities.BookInstance, error) {
	now = now.UTC()
	var instances []entities.BookInstance
	err := r.db.WithContext(ctx).Preload("Book").
		Where("status = ? AND due_back < ?", entities.StatusLoaned, now).
		Order("due_back ASC").
		Find(&instances).Error
	if err != nil {
		return nil, err
	}

	// Zero due dates are stored as year 1 and sort before any real date.
	overdue := instances[:0]
	for _, bi := range instances {
		if bi.IsOverdue(now) {
			overdue = append(overdue, bi)
		}
	}
	return overdue, nil
}

// CountByStatus returns the number of copies with the given status.
func (r *Repository) CountByStatus(ctx context.Context, status entities.BookInstanceStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.BookInstance{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// Count returns the number of copies.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.BookInstance{}).Count(&count).Error
	return count, err
}
