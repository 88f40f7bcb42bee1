package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

type options struct {
	logLevel logger.LogLevel
}

// Option customises how the database connection is opened.
type Option func(*options)

// WithLogLevel sets the gorm SQL logging level.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *options) {
		o.logLevel = level
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	o := options{logLevel: logger.Warn}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(o.logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate all entities
	err = db.AutoMigrate(
		&entities.Genre{},
		&entities.Book{},
		&entities.BookInstance{},
		&entities.User{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := backfillGenreKeys(db); err != nil {
		return nil, fmt.Errorf("failed to backfill genre keys: %w", err)
	}

	return &Database{DB: db}, nil
}

// backfillGenreKeys fills name_key for genres written before the column
// existed.
func backfillGenreKeys(db *gorm.DB) error {
	var genres []entities.Genre
	if err := db.Where("name_key = '' OR name_key IS NULL").Find(&genres).Error; err != nil {
		return err
	}
	for _, g := range genres {
		err := db.Model(&entities.Genre{}).Where("id = ?", g.ID).
			Update("name_key", entities.GenreNameKey(g.Name)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// dsn adds a busy timeout so concurrent writers wait for the lock instead of
// failing with SQLITE_BUSY.
func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is still usable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
