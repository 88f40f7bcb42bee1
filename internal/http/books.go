package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const bookNotFound = "Book not found"

// BookController serves the read-only book pages.
type BookController struct {
	books BookStore
}

func NewBookController(books BookStore) *BookController {
	return &BookController{books: books}
}

// List handles GET /catalog/books.
func (bc *BookController) List(c *gin.Context) {
	books, err := bc.books.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "book_list", gin.H{
		"Title": "Book List",
		"Books": books,
	})
}

// Detail handles GET /catalog/book/:id.
func (bc *BookController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c, bookNotFound)
	if !ok {
		return
	}

	book, err := bc.books.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, lookupError(err, bookNotFound))
		return
	}

	render(c, http.StatusOK, "book_detail", gin.H{
		"Title": book.Title,
		"Book":  book,
	})
}
