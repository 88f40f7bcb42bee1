// Package genres provides database operations for catalog genres.
//
// # Usage
//
//	repo := genres.NewRepository(db)
//	genre, err := repo.FindByName(ctx, "Fantasy")
package genres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// ErrGenreHasBooks is returned when deleting a genre that books still reference.
var ErrGenreHasBooks = errors.New("genre still has books")

// Repository handles all genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genres repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns every genre sorted by name.
func (r *Repository) List(ctx context.Context) ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.WithContext(ctx).Order("name ASC").Find(&genres).Error
	return genres, err
}

// GetByID retrieves a genre by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Genre, error) {
	var genre entities.Genre
	if err := r.db.WithContext(ctx).First(&genre, id).Error; err != nil {
		return nil, err
	}
	return &genre, nil
}

// FindByName looks up a genre by name, ignoring case (including non-ASCII
// letters).
func (r *Repository) FindByName(ctx context.Context, name string) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.WithContext(ctx).Where("name_key = ?", entities.GenreNameKey(name)).First(&genre).Error
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r *Repository) Create(ctx context.Context, genre *entities.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

// Update renames an existing genre. It returns gorm.ErrRecordNotFound when
// no genre has the given ID.
func (r *Repository) Update(ctx context.Context, genre *entities.Genre) error {
	result := r.db.WithContext(ctx).Model(&entities.Genre{}).
		Where("id = ?", genre.ID).
		Updates(map[string]interface{}{
			"name":     genre.Name,
			"name_key": entities.GenreNameKey(genre.Name),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a genre that no book references.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Table("book_genres").Where("genre_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrGenreHasBooks
		}

		result := tx.Delete(&entities.Genre{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Count returns the number of genres.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Genre{}).Count(&count).Error
	return count, err
}
