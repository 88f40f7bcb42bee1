package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newErrorRouter(t *testing.T, err error) *gin.Engine {
	t.Helper()
	tmpl, tErr := LoadTemplates("")
	require.NoError(t, tErr)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(ErrorHandler(zaptest.NewLogger(t)))
	handler := func(c *gin.Context) { fail(c, err) }
	router.GET("/page", handler)
	router.GET("/api/thing", handler)
	return router
}

func TestErrorHandler_RendersHTTPError(t *testing.T) {
	router := newErrorRouter(t, NotFound("Genre not found"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Genre not found</h1>")
	assert.Contains(t, w.Body.String(), "<h2>404</h2>")
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	router := newErrorRouter(t, errors.New("database is locked"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), internalErrorMessage)
	assert.NotContains(t, w.Body.String(), "database is locked")
}

func TestErrorHandler_JSONForAPI(t *testing.T) {
	router := newErrorRouter(t, lookupError(gorm.ErrRecordNotFound, "Book copy not found"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/thing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Book copy not found"}`, w.Body.String())
}

func TestLookupError(t *testing.T) {
	err := lookupError(gorm.ErrRecordNotFound, "Genre not found")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	other := errors.New("boom")
	assert.Same(t, other, lookupError(other, "Genre not found"))
}
