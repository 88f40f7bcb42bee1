// Package database opens the catalog SQLite database and migrates its schema.
//
// # Architecture
//
// Queries live in domain-specific sub-packages, each exposing a Repository
// built from the shared *gorm.DB:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── genres/          # Genre CRUD and book references
//	├── books/           # Read access to books
//	├── bookinstances/   # Physical copies, overdue lookups
//	├── audit/           # Change log
//	└── users/           # Librarian accounts
//
// # Usage
//
//	db, err := database.NewDatabase("./catalog.db")
//	genresRepo := genres.NewRepository(db.DB)
//	genre, err := genresRepo.GetByID(ctx, 3)
//
// Repositories return gorm.ErrRecordNotFound unchanged so callers can map it
// to a 404.
package database
