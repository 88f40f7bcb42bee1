// Package forms holds the catalog's HTML form models and their validation.
//
// Handlers bind a form with gin, call Normalize to trim the input, then
// Validate. Validation failures come back as Errors, ready for templates.
package forms

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mrlokans/catalog/internal/entities"
)

// FieldError is a single message tied to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// Errors is the list of problems found in a submitted form.
type Errors []FieldError

// For returns the first message for field, or "".
func (e Errors) For(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Add appends a message for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("bookstatus", func(fl validator.FieldLevel) bool {
		return entities.BookInstanceStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// messages maps "Field.tag" to what the user sees.
var messages = map[string]string{
	"Name.required":     "Genre name required",
	"Name.max":          "Genre name must be at most 100 characters",
	"Book.required":     "Book must be specified",
	"Book.numeric":      "Book must be specified",
	"Imprint.required":  "Imprint must be specified",
	"Imprint.max":       "Imprint must be at most 512 characters",
	"Status.bookstatus": "Invalid status",
	"DueBack.isodate":   "Invalid date",
}

// formFields maps struct fields to their HTML input names.
var formFields = map[string]string{
	"Name":    "name",
	"Book":    "book",
	"Imprint": "imprint",
	"Status":  "status",
	"DueBack": "due_back",
}

func check(form any) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{{Field: "", Message: err.Error()}}
	}

	var out Errors
	for _, fe := range verrs {
		msg, ok := messages[fe.StructField()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid " + formFields[fe.StructField()]
		}
		out.Add(formFields[fe.StructField()], msg)
	}
	return out
}

// ParseDate accepts a calendar date (2006-01-02) or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(entities.DueBackInputLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// GenreForm is the create/update genre form.
type GenreForm struct {
	Name string `form:"name" json:"name" validate:"required,max=100"`
}

// Normalize trims surrounding whitespace.
func (f *GenreForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
}

func (f GenreForm) Validate() Errors {
	return check(f)
}

// Genre builds the entity described by the form.
func (f GenreForm) Genre() entities.Genre {
	return entities.Genre{Name: f.Name}
}

// BookInstanceForm is the create/update book copy form.
type BookInstanceForm struct {
	Book    string `form:"book" json:"book" validate:"required,numeric"`
	Imprint string `form:"imprint" json:"imprint" validate:"required,max=512"`
	Status  string `form:"status" json:"status" validate:"omitempty,bookstatus"`
	DueBack string `form:"due_back" json:"due_back" validate:"omitempty,isodate"`
}

// Normalize trims every field.
func (f *BookInstanceForm) Normalize() {
	f.Book = strings.TrimSpace(f.Book)
	f.Imprint = strings.TrimSpace(f.Imprint)
	f.Status = strings.TrimSpace(f.Status)
	f.DueBack = strings.TrimSpace(f.DueBack)
}

func (f BookInstanceForm) Validate() Errors {
	return check(f)
}

// BookID returns the selected book, or 0 when none was chosen.
func (f BookInstanceForm) BookID() uint {
	id, err := strconv.ParseUint(f.Book, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// BookInstance builds the entity described by a validated form. An empty
// status means Maintenance and an empty due date means today.
func (f BookInstanceForm) BookInstance(now time.Time) entities.BookInstance {
	status := entities.BookInstanceStatus(f.Status)
	if status == "" {
		status = entities.StatusMaintenance
	}

	due, err := ParseDate(f.DueBack)
	if f.DueBack == "" || err != nil {
		y, m, d := now.UTC().Date()
		due = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	due = due.UTC()

	return entities.BookInstance{
		BookID:  f.BookID(),
		Imprint: f.Imprint,
		Status:  status,
		DueBack: due,
	}
}

// BookInstanceFormFrom fills a form from a stored copy, for update pages.
func BookInstanceFormFrom(bi entities.BookInstance) BookInstanceForm {
	return BookInstanceForm{
		Book:    strconv.FormatUint(uint64(bi.BookID), 10),
		Imprint: bi.Imprint,
		Status:  string(bi.Status),
		DueBack: bi.DueBackInput(),
	}
}
