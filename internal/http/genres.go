package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/database/genres"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/forms"
	"github.com/mrlokans/catalog/internal/metrics"
)

const (
	genreNotFound  = "Genre not found"
	genresListPath = "/catalog/genres"
)

// GenreController serves the genre pages and their JSON mirror.
type GenreController struct {
	genres  GenreStore
	books   BookStore
	auditor Auditor
	metrics *metrics.Metrics
}

func NewGenreController(genres GenreStore, books BookStore, auditor Auditor, m *metrics.Metrics) *GenreController {
	return &GenreController{
		genres:  genres,
		books:   books,
		auditor: auditor,
		metrics: m,
	}
}

// List handles GET /catalog/genres.
func (gc *GenreController) List(c *gin.Context) {
	list, err := gc.genres.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "genre_list", gin.H{
		"Title":  "Genre List",
		"Genres": list,
	})
}

// withBooks loads a genre and the books filed under it concurrently.
func (gc *GenreController) withBooks(c *gin.Context, id uint) (*entities.Genre, []entities.Book, error) {
	var (
		genre *entities.Genre
		books []entities.Book
	)

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		genre, err = gc.genres.GetByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = gc.books.ListByGenre(ctx, id)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return genre, books, nil
}

// Detail handles GET /catalog/genre/:id.
func (gc *GenreController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, genreNotFound)
	if !ok {
		return
	}

	genre, books, err := gc.withBooks(c, id)
	if err != nil {
		fail(c, lookupError(err, genreNotFound))
		return
	}

	render(c, http.StatusOK, "genre_detail", gin.H{
		"Title": "Genre Detail",
		"Genre": genre,
		"Books": books,
	})
}

func (gc *GenreController) renderForm(c *gin.Context, status int, title string, genre entities.Genre, errs forms.Errors) {
	render(c, status, "genre_form", gin.H{
		"Title":  title,
		"Genre":  genre,
		"Errors": errs,
	})
}

// CreateForm handles GET /catalog/genre/create.
func (gc *GenreController) CreateForm(c *gin.Context) {
	gc.renderForm(c, http.StatusOK, "Create Genre", entities.Genre{}, nil)
}

// bindGenre reads and validates the posted form. It reports false after
// re-rendering the form when the input is invalid.
func (gc *GenreController) bindGenre(c *gin.Context, title string, id uint) (forms.GenreForm, bool) {
	var form forms.GenreForm
	if !bindForm(c, &form) {
		return form, false
	}
	form.Normalize()

	if errs := form.Validate(); len(errs) > 0 {
		genre := form.Genre()
		genre.ID = id
		gc.renderForm(c, http.StatusOK, title, genre, errs)
		return form, false
	}
	return form, true
}

// redirectToExisting sends the client to another genre that already uses
// name. The genre being edited (self) never counts as a duplicate, so a
// rename that only changes case is saved. It reports whether a redirect
// was issued.
func (gc *GenreController) redirectToExisting(c *gin.Context, name string, self uint) (bool, error) {
	existing, err := gc.genres.FindByName(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if self != 0 && existing.ID == self {
		return false, nil
	}
	redirect(c, existing.URL())
	return true, nil
}

// Create handles POST /catalog/genre/create.
func (gc *GenreController) Create(c *gin.Context) {
	form, ok := gc.bindGenre(c, "Create Genre", 0)
	if !ok {
		return
	}

	if found, err := gc.redirectToExisting(c, form.Name, 0); err != nil {
		fail(c, err)
		return
	} else if found {
		return
	}

	genre := form.Genre()
	if err := gc.genres.Create(c.Request.Context(), &genre); err != nil {
		fail(c, err)
		return
	}

	gc.record(c, "create", genre)
	redirect(c, genre.URL())
}

// UpdateForm handles GET /catalog/genre/:id/update.
func (gc *GenreController) UpdateForm(c *gin.Context) {
	id, ok := parseIDParam(c, genreNotFound)
	if !ok {
		return
	}

	genre, err := gc.genres.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupError(err, genreNotFound))
		return
	}

	gc.renderForm(c, http.StatusOK, "Update Genre", *genre, nil)
}

// Update handles POST /catalog/genre/:id/update.
func (gc *GenreController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, genreNotFound)
	if !ok {
		return
	}

	form, ok := gc.bindGenre(c, "Update Genre", id)
	if !ok {
		return
	}

	if found, err := gc.redirectToExisting(c, form.Name, id); err != nil {
		fail(c, err)
		return
	} else if found {
		return
	}

	genre := form.Genre()
	genre.ID = id
	if err := gc.genres.Update(c.Request.Context(), &genre); err != nil {
		fail(c, lookupError(err, genreNotFound))
		return
	}

	gc.record(c, "update", genre)
	redirect(c, genre.URL())
}

// DeleteForm handles GET /catalog/genre/:id/delete.
func (gc *GenreController) DeleteForm(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		redirect(c, genresListPath)
		return
	}

	genre, books, err := gc.withBooks(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			redirect(c, genresListPath)
			return
		}
		fail(c, err)
		return
	}

	gc.renderDelete(c, genre, books)
}

func (gc *GenreController) renderDelete(c *gin.Context, genre *entities.Genre, books []entities.Book) {
	render(c, http.StatusOK, "genre_delete", gin.H{
		"Title": "Delete Genre",
		"Genre": genre,
		"Books": books,
	})
}

// Delete handles POST /catalog/genre/:id/delete. The id comes from the
// genreid form field. A genre that still has books is never removed.
func (gc *GenreController) Delete(c *gin.Context) {
	id, ok := formIDOrParam(c, "genreid")
	if !ok {
		redirect(c, genresListPath)
		return
	}

	genre, books, err := gc.withBooks(c, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			redirect(c, genresListPath)
			return
		}
		fail(c, err)
		return
	}

	if len(books) > 0 {
		gc.renderDelete(c, genre, books)
		return
	}

	err = gc.genres.Delete(c.Request.Context(), id)
	switch {
	case errors.Is(err, genres.ErrGenreHasBooks):
		// A book was filed under the genre after the lookup.
		books, err = gc.books.ListByGenre(c.Request.Context(), id)
		if err != nil {
			fail(c, err)
			return
		}
		gc.renderDelete(c, genre, books)
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		fail(c, err)
		return
	default:
		gc.record(c, "delete", *genre)
	}

	redirect(c, genresListPath)
}

func (gc *GenreController) record(c *gin.Context, action string, genre entities.Genre) {
	gc.metrics.RecordMutation("genre", action)
	if gc.auditor == nil {
		return
	}
	switch action {
	case "create":
		gc.auditor.LogCreate(actor(c), "genre", genre.ID, genre.Name)
	case "update":
		gc.auditor.LogUpdate(actor(c), "genre", genre.ID, genre.Name)
	case "delete":
		gc.auditor.LogDelete(actor(c), "genre", genre.ID, genre.Name)
	}
}

// APIList handles GET /api/genres.
func (gc *GenreController) APIList(c *gin.Context) {
	list, err := gc.genres.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": list})
}

// APIDetail handles GET /api/genres/:id.
func (gc *GenreController) APIDetail(c *gin.Context) {
	id, ok := parseIDParam(c, genreNotFound)
	if !ok {
		return
	}

	genre, books, err := gc.withBooks(c, id)
	if err != nil {
		fail(c, lookupError(err, genreNotFound))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"genre": genre,
		"books": books,
	})
}
