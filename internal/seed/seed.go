// Package seed fills an empty catalog with a small sample library: a few
// genres, books filed under them, and copies in every loan status.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
)

// ErrNotEmpty is returned when seeding a catalog that already has books.
var ErrNotEmpty = errors.New("catalog already has books; use reset to replace them")

// Result counts the records a run created.
type Result struct {
	Genres    int
	Books     int
	Instances int
}

type sampleBook struct {
	title   string
	author  string
	summary string
	isbn    string
	genres  []string
}

type sampleCopy struct {
	book    string
	imprint string
	status  entities.BookInstanceStatus
	dueIn   int // days from now; negative means overdue
}

var genreNames = []string{"Fantasy", "Science Fiction", "French Poetry"}

var sampleBooks = []sampleBook{
	{
		title:   "The Name of the Wind",
		author:  "Patrick Rothfuss",
		summary: "I have stolen princesses back from sleeping barrow kings. I burned down the town of Trebon. I have spent the night with Felurian and left with both my sanity and my life.",
		isbn:    "9781473211896",
		genres:  []string{"Fantasy"},
	},
	{
		title:   "The Wise Man's Fear",
		author:  "Patrick Rothfuss",
		summary: "Picking up the tale of Kvothe Kingkiller once again, we follow him into exile, into political intrigue, courtship, adventure, love and magic.",
		isbn:    "9788401352836",
		genres:  []string{"Fantasy"},
	},
	{
		title:   "The Slow Regard of Silent Things",
		author:  "Patrick Rothfuss",
		summary: "Deep below the University, there is a dark place. Few people know of it: a broken web of ancient passageways and abandoned rooms.",
		isbn:    "9780756411336",
		genres:  []string{"Fantasy"},
	},
	{
		title:   "Apes and Angels",
		author:  "Ben Bova",
		summary: "Humankind headed out to the stars not for conquest, nor exploration, nor even for curiosity. Humans went to the stars in a desperate crusade to save intelligent life wherever they found it.",
		isbn:    "9780765379528",
		genres:  []string{"Science Fiction"},
	},
	{
		title:   "Death Wave",
		author:  "Ben Bova",
		summary: "In Ben Bova's previous novel New Earth, Jordan Kell led the first human mission beyond the solar system.",
		isbn:    "9780765379504",
		genres:  []string{"Science Fiction"},
	},
	{
		title:   "Les Fleurs du mal",
		author:  "Charles Baudelaire",
		summary: "A volume of French poetry first published in 1857, revised and expanded in 1861.",
		isbn:    "9782253007104",
		genres:  []string{"French Poetry"},
	},
	{
		title:   "Foundation and Earth",
		author:  "Isaac Asimov",
		summary: "Golan Trevize searches for the lost planet Earth, the legendary origin of humanity.",
		isbn:    "9780553587579",
		genres:  []string{"Science Fiction", "Fantasy"},
	},
}

var sampleCopies = []sampleCopy{
	{"The Name of the Wind", "London Gollancz, 2014.", entities.StatusAvailable, 0},
	{"The Name of the Wind", "Gollancz, 2011.", entities.StatusLoaned, 10},
	{"The Wise Man's Fear", "Gollancz, 2011.", entities.StatusLoaned, -3},
	{"The Slow Regard of Silent Things", "DAW, 2014.", entities.StatusMaintenance, 0},
	{"Apes and Angels", "New York Tom Doherty Associates, 2016.", entities.StatusAvailable, 0},
	{"Apes and Angels", "New York Tom Doherty Associates, 2016.", entities.StatusReserved, 5},
	{"Death Wave", "New York, NY Tor, 2015.", entities.StatusAvailable, 0},
	{"Death Wave", "New York, NY Tor, 2015.", entities.StatusLoaned, -12},
	{"Les Fleurs du mal", "Paris Le Livre de Poche, 1972.", entities.StatusAvailable, 0},
	{"Foundation and Earth", "Bantam Spectra, 2004.", entities.StatusMaintenance, 0},
	{"Foundation and Earth", "Doubleday, 1986.", entities.StatusLoaned, 21},
}

// Seeder writes the sample catalog.
type Seeder struct {
	db     *gorm.DB
	clock  clockwork.Clock
	logger *zap.Logger
}

// New creates a seeder. A nil clock uses wall time and a nil logger is silent.
func New(db *gorm.DB, clock clockwork.Clock, logger *zap.Logger) *Seeder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{db: db, clock: clock, logger: logger.Named("seed")}
}

// Reset deletes every genre, book and copy.
func (s *Seeder) Reset(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM book_instances",
			"DELETE FROM book_genres",
			"DELETE FROM books",
			"DELETE FROM genres",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("reset catalog: %w", err)
			}
		}
		return nil
	})
}

// Run creates the sample catalog in one transaction. It refuses to touch a
// catalog that already has books.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var result Result

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entities.Book{}).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrNotEmpty
		}

		genres := make(map[string]entities.Genre, len(genreNames))
		for _, name := range genreNames {
			genre := entities.Genre{Name: name}
			if err := tx.Create(&genre).Error; err != nil {
				return fmt.Errorf("create genre %q: %w", name, err)
			}
			genres[name] = genre
			result.Genres++
		}

		books := make(map[string]entities.Book, len(sampleBooks))
		for _, b := range sampleBooks {
			book := entities.Book{
				Title:   b.title,
				Author:  b.author,
				Summary: b.summary,
				ISBN:    b.isbn,
			}
			for _, name := range b.genres {
				book.Genres = append(book.Genres, genres[name])
			}
			if err := tx.Create(&book).Error; err != nil {
				return fmt.Errorf("create book %q: %w", b.title, err)
			}
			books[b.title] = book
			result.Books++
		}

		today := startOfDay(s.clock.Now())
		for _, c := range sampleCopies {
			instance := entities.BookInstance{
				BookID:  books[c.book].ID,
				Imprint: c.imprint,
				Status:  c.status,
				DueBack: today.AddDate(0, 0, c.dueIn),
			}
			if err := tx.Omit("Book").Create(&instance).Error; err != nil {
				return fmt.Errorf("create copy of %q: %w", c.book, err)
			}
			result.Instances++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	s.logger.Info("catalog seeded",
		zap.Int("genres", result.Genres),
		zap.Int("books", result.Books),
		zap.Int("instances", result.Instances))
	return result, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
