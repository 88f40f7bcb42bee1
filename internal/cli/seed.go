package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	"github.com/mrlokans/catalog/internal/logging"
	"github.com/mrlokans/catalog/internal/seed"
)

// SeedCommand populates a database with the sample catalog.
type SeedCommand struct {
	DatabasePath string
	Reset        bool
	Verbose      bool
}

// NewSeedCommand creates a new SeedCommand
func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

// ParseFlags parses command line flags
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the catalog database file")
	fs.BoolVar(&cmd.Reset, "reset", false, "Delete existing genres, books and copies first")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fill the catalog with sample genres, books and book copies.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed -db ./data/catalog.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s seed -reset\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the seed command
func (cmd *SeedCommand) Run(ctx context.Context) error {
	level := "info"
	if cmd.Verbose {
		level = "debug"
	}
	log, err := logging.New(config.Logging{Level: level, Development: true})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	gormLevel := logger.Silent
	if cmd.Verbose {
		gormLevel = logger.Info
	}
	db, err := database.NewDatabase(cmd.DatabasePath, database.WithLogLevel(gormLevel))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	seeder := seed.New(db.DB, nil, log)
	if cmd.Reset {
		if err := seeder.Reset(ctx); err != nil {
			return err
		}
		log.Info("existing catalog removed", zap.String("database", cmd.DatabasePath))
	}

	result, err := seeder.Run(ctx)
	if errors.Is(err, seed.ErrNotEmpty) {
		return fmt.Errorf("%s: %w", cmd.DatabasePath, err)
	}
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	fmt.Printf("Seeded %s: %d genres, %d books, %d copies\n",
		cmd.DatabasePath, result.Genres, result.Books, result.Instances)
	return nil
}
