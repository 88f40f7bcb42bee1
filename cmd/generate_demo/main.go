// Command generate_demo creates a demo database holding the sample catalog.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db] [-librarian-password secret]
//
// Serve the result with READ_ONLY=true for a public demo instance.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	"github.com/mrlokans/catalog/internal/database/users"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/seed"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	password := flag.String("librarian-password", "", "also create a 'demo' librarian with this password")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath, database.WithLogLevel(logger.Silent))
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	result, err := seed.New(db.DB, nil, zap.NewExample()).Run(ctx)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	log.Printf("Saved %d genres, %d books and %d copies", result.Genres, result.Books, result.Instances)

	if *password != "" {
		service := auth.NewService(users.NewRepository(db.DB), config.Auth{BcryptCost: bcrypt.DefaultCost}, nil)
		if _, err := service.CreateUser(ctx, "demo", "demo@library.example", *password, entities.UserRoleLibrarian); err != nil {
			log.Fatalf("Failed to create demo librarian: %v", err)
		}
		log.Printf("Created librarian 'demo'")
	}

	log.Println("Demo database generated successfully!")
}
