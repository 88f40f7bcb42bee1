package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/database"
	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/database/bookinstances"
	"github.com/mrlokans/catalog/internal/database/books"
	"github.com/mrlokans/catalog/internal/database/genres"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

type testApp struct {
	router    *gin.Engine
	db        *database.Database
	genres    *genres.Repository
	books     *books.Repository
	instances *bookinstances.Repository
	audit     *audit.Service
	metrics   *metrics.Metrics
}

func newTestApp(t *testing.T, configure ...func(*RouterConfig)) *testApp {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "catalog.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	app := &testApp{
		db:        db,
		genres:    genres.NewRepository(db.DB),
		books:     books.NewRepository(db.DB),
		instances: bookinstances.NewRepository(db.DB),
		audit:     audit.NewService(auditRepo.NewRepository(db.DB), log, nil),
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	t.Cleanup(func() {
		app.audit.Wait()
		db.Close()
	})

	cfg := RouterConfig{
		Genres:      app.genres,
		Books:       app.books,
		Instances:   app.instances,
		Auditor:     app.audit,
		AuditReader: app.audit,
		Database:    db,
		Version:     "test",
		Metrics:     app.metrics,
		Logger:      log,
		Clock:       clockwork.NewFakeClockAt(testNow),
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	app.router, err = NewRouter(cfg)
	require.NoError(t, err)
	return app
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// postRaw sends body as a urlencoded form without encoding it first.
func (a *testApp) postRaw(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) createGenre(t *testing.T, name string) entities.Genre {
	t.Helper()
	genre := entities.Genre{Name: name}
	require.NoError(t, a.genres.Create(context.Background(), &genre))
	return genre
}

func (a *testApp) createBook(t *testing.T, title string, genres ...entities.Genre) entities.Book {
	t.Helper()
	book := entities.Book{Title: title, Author: "Test Author", Summary: title + " summary", Genres: genres}
	require.NoError(t, a.books.Create(context.Background(), &book))
	return book
}

func (a *testApp) createInstance(t *testing.T, book entities.Book, imprint string, status entities.BookInstanceStatus) entities.BookInstance {
	t.Helper()
	instance := entities.BookInstance{BookID: book.ID, Imprint: imprint, Status: status, DueBack: testNow.AddDate(0, 0, 14)}
	require.NoError(t, a.instances.Create(context.Background(), &instance))
	return instance
}

// auditActions waits for pending audit writes and returns the recorded actions.
func (a *testApp) auditActions(t *testing.T) []string {
	t.Helper()
	a.audit.Wait()

	events, _, err := a.audit.GetEvents(context.Background(), auditRepo.Filter{}, 100, 0)
	require.NoError(t, err)

	actions := make([]string, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	return actions
}
