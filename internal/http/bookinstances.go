package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/forms"
	"github.com/mrlokans/catalog/internal/metrics"
)

const (
	bookCopyNotFound      = "Book copy not found"
	bookInstanceNotFound  = "Bookinstance not found"
	bookInstancesListPath = "/catalog/bookinstances"

	createBookInstanceTitle = "Create BookInstance"
	updateBookInstanceTitle = "Update BookInstance"
)

// BookInstanceController serves the book copy pages and their JSON mirror.
type BookInstanceController struct {
	instances BookInstanceStore
	books     BookStore
	auditor   Auditor
	metrics   *metrics.Metrics
	clock     Clock
}

func NewBookInstanceController(instances BookInstanceStore, books BookStore, auditor Auditor, m *metrics.Metrics, clock Clock) *BookInstanceController {
	return &BookInstanceController{
		instances: instances,
		books:     books,
		auditor:   auditor,
		metrics:   m,
		clock:     clock,
	}
}

// List handles GET /catalog/bookinstances.
func (bc *BookInstanceController) List(c *gin.Context) {
	list, err := bc.instances.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "bookinstance_list", gin.H{
		"Title":     "Book Instance List",
		"Instances": list,
	})
}

// Detail handles GET /catalog/bookinstance/:id.
func (bc *BookInstanceController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, bookCopyNotFound)
	if !ok {
		return
	}

	instance, err := bc.instances.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupError(err, bookCopyNotFound))
		return
	}

	render(c, http.StatusOK, "bookinstance_detail", gin.H{
		"Title":    "Copy: " + instance.Book.Title,
		"Instance": instance,
	})
}

func (bc *BookInstanceController) renderForm(c *gin.Context, title string, books []entities.Book, form forms.BookInstanceForm, errs forms.Errors) {
	render(c, http.StatusOK, "bookinstance_form", gin.H{
		"Title":        title,
		"Books":        books,
		"Form":         form,
		"SelectedBook": form.BookID(),
		"Errors":       errs,
	})
}

// CreateForm handles GET /catalog/bookinstance/create.
func (bc *BookInstanceController) CreateForm(c *gin.Context) {
	books, err := bc.books.ListTitles(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	bc.renderForm(c, createBookInstanceTitle, books, forms.BookInstanceForm{}, nil)
}

// bindInstance reads and validates the posted form, including that the
// chosen book exists. It reports false after re-rendering the form when
// the input is invalid or after failing the request.
func (bc *BookInstanceController) bindInstance(c *gin.Context, title string) (forms.BookInstanceForm, bool) {
	var form forms.BookInstanceForm
	if !bindForm(c, &form) {
		return form, false
	}
	form.Normalize()

	ctx := c.Request.Context()
	errs := form.Validate()
	if errs.For("book") == "" {
		exists, err := bc.books.Exists(ctx, form.BookID())
		if err != nil {
			fail(c, err)
			return form, false
		}
		if !exists {
			errs.Add("book", "Book must be specified")
		}
	}
	if len(errs) == 0 {
		return form, true
	}

	books, err := bc.books.ListTitles(ctx)
	if err != nil {
		fail(c, err)
		return form, false
	}
	bc.renderForm(c, title, books, form, errs)
	return form, false
}

// Create handles POST /catalog/bookinstance/create.
func (bc *BookInstanceController) Create(c *gin.Context) {
	form, ok := bc.bindInstance(c, createBookInstanceTitle)
	if !ok {
		return
	}

	instance := form.BookInstance(bc.clock.Now())
	if err := bc.instances.Create(c.Request.Context(), &instance); err != nil {
		fail(c, err)
		return
	}

	bc.record(c, "create", instance)
	redirect(c, instance.URL())
}

// UpdateForm handles GET /catalog/bookinstance/:id/update. The copy and the
// book choices are loaded concurrently.
func (bc *BookInstanceController) UpdateForm(c *gin.Context) {
	id, ok := parseIDParam(c, bookInstanceNotFound)
	if !ok {
		return
	}

	var (
		instance *entities.BookInstance
		books    []entities.Book
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		instance, err = bc.instances.GetByID(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = bc.books.ListTitles(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fail(c, lookupError(err, bookInstanceNotFound))
		return
	}

	bc.renderForm(c, updateBookInstanceTitle, books, forms.BookInstanceFormFrom(*instance), nil)
}

// Update handles POST /catalog/bookinstance/:id/update.
func (bc *BookInstanceController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, bookInstanceNotFound)
	if !ok {
		return
	}

	form, ok := bc.bindInstance(c, updateBookInstanceTitle)
	if !ok {
		return
	}

	instance := form.BookInstance(bc.clock.Now())
	instance.ID = id
	if err := bc.instances.Update(c.Request.Context(), &instance); err != nil {
		fail(c, lookupError(err, bookInstanceNotFound))
		return
	}

	bc.record(c, "update", instance)
	redirect(c, instance.URL())
}

// DeleteForm handles GET /catalog/bookinstance/:id/delete.
func (bc *BookInstanceController) DeleteForm(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		redirect(c, bookInstancesListPath)
		return
	}

	instance, err := bc.instances.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			redirect(c, bookInstancesListPath)
			return
		}
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "bookinstance_delete", gin.H{
		"Title":    "Delete BookInstance",
		"Instance": instance,
	})
}

// Delete handles POST /catalog/bookinstance/:id/delete. The id comes from
// the bookinstanceid form field. Deleting a missing copy still redirects.
func (bc *BookInstanceController) Delete(c *gin.Context) {
	id, ok := formIDOrParam(c, "bookinstanceid")
	if !ok {
		redirect(c, bookInstancesListPath)
		return
	}

	ctx := c.Request.Context()
	instance, err := bc.instances.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		redirect(c, bookInstancesListPath)
		return
	}
	if err != nil {
		fail(c, err)
		return
	}

	err = bc.instances.Delete(ctx, id)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		fail(c, err)
		return
	default:
		bc.record(c, "delete", *instance)
	}

	redirect(c, bookInstancesListPath)
}

func (bc *BookInstanceController) record(c *gin.Context, action string, instance entities.BookInstance) {
	bc.metrics.RecordMutation("bookinstance", action)
	if bc.auditor == nil {
		return
	}
	switch action {
	case "create":
		bc.auditor.LogCreate(actor(c), "bookinstance", instance.ID, instance.Imprint)
	case "update":
		bc.auditor.LogUpdate(actor(c), "bookinstance", instance.ID, instance.Imprint)
	case "delete":
		bc.auditor.LogDelete(actor(c), "bookinstance", instance.ID, instance.Imprint)
	}
}

// APIList handles GET /api/bookinstances.
func (bc *BookInstanceController) APIList(c *gin.Context) {
	list, err := bc.instances.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookinstances": list})
}

// APIDetail handles GET /api/bookinstances/:id.
func (bc *BookInstanceController) APIDetail(c *gin.Context) {
	id, ok := parseIDParam(c, bookCopyNotFound)
	if !ok {
		return
	}

	instance, err := bc.instances.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupError(err, bookCopyNotFound))
		return
	}
	c.JSON(http.StatusOK, instance)
}
