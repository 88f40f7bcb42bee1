package entities

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type BookInstanceStatus string

const (
	StatusAvailable   BookInstanceStatus = "Available"
	StatusMaintenance BookInstanceStatus = "Maintenance"
	StatusLoaned      BookInstanceStatus = "Loaned"
	StatusReserved    BookInstanceStatus = "Reserved"
)

// BookInstanceStatuses lists the statuses in the order forms present them.
var BookInstanceStatuses = []BookInstanceStatus{
	StatusMaintenance,
	StatusAvailable,
	StatusLoaned,
	StatusReserved,
}

// Date layouts used when rendering due dates.
const (
	DueBackDisplayLayout = "Jan 2, 2006"
	DueBackInputLayout   = "2006-01-02"
)

type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;size:100;not null" json:"name"`
	NameKey   string    `gorm:"index;size:100" json:"-"`
	Books     []Book    `gorm:"many2many:book_genres;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Genre) TableName() string {
	return "genres"
}

func (g Genre) URL() string {
	return fmt.Sprintf("/catalog/genre/%d", g.ID)
}

// BeforeSave keeps NameKey in step with Name.
func (g *Genre) BeforeSave(tx *gorm.DB) error {
	g.NameKey = GenreNameKey(g.Name)
	return nil
}

// GenreNameKey folds a genre name for duplicate detection. SQLite's LOWER
// only folds ASCII, so the key is computed here with Unicode case mapping.
func GenreNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"index;size:512;not null" json:"title"`
	Author    string         `gorm:"index;size:256" json:"author"`
	Summary   string         `gorm:"type:text" json:"summary,omitempty"`
	ISBN      string         `gorm:"index;size:20" json:"isbn,omitempty"`
	Genres    []Genre        `gorm:"many2many:book_genres;" json:"genres,omitempty"`
	Instances []BookInstance `gorm:"foreignKey:BookID" json:"instances,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

func (b Book) URL() string {
	return fmt.Sprintf("/catalog/book/%d", b.ID)
}

// BookInstance is a physical copy of a book that can be borrowed.
type BookInstance struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	BookID    uint               `gorm:"index;not null" json:"book_id"`
	Book      Book               `gorm:"foreignKey:BookID" json:"book"`
	Imprint   string             `gorm:"size:512;not null" json:"imprint"`
	Status    BookInstanceStatus `gorm:"index;size:20;default:'Maintenance'" json:"status"`
	DueBack   time.Time          `json:"due_back"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (BookInstance) TableName() string {
	return "book_instances"
}

func (bi BookInstance) URL() string {
	return fmt.Sprintf("/catalog/bookinstance/%d", bi.ID)
}

func (bi BookInstance) DueBackFormatted() string {
	if bi.DueBack.IsZero() {
		return ""
	}
	return bi.DueBack.Format(DueBackDisplayLayout)
}

// DueBackInput formats the due date for <input type="date">.
func (bi BookInstance) DueBackInput() string {
	if bi.DueBack.IsZero() {
		return ""
	}
	return bi.DueBack.Format(DueBackInputLayout)
}

// IsOverdue reports whether a loaned copy should have been returned before now.
func (bi BookInstance) IsOverdue(now time.Time) bool {
	return bi.Status == StatusLoaned && !bi.DueBack.IsZero() && bi.DueBack.Before(now)
}

// IsValid reports whether s is one of the known statuses.
func (s BookInstanceStatus) IsValid() bool {
	for _, known := range BookInstanceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// CatalogStats summarises the collection for the home page.
type CatalogStats struct {
	Books           int64 `json:"books"`
	Genres          int64 `json:"genres"`
	Instances       int64 `json:"instances"`
	AvailableCopies int64 `json:"available_copies"`
	LoanedCopies    int64 `json:"loaned_copies"`
}
