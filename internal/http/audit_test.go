package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

func recordChanges(t *testing.T, app *testApp) {
	t.Helper()
	actor := audit.Actor{IPAddress: "127.0.0.1"}
	app.audit.LogCreate(actor, "genre", 1, "Fantasy")
	app.audit.LogUpdate(actor, "genre", 1, "Fantasy & Myth")
	app.audit.LogDelete(actor, "bookinstance", 4, "Ace, 1990")
	require.NoError(t, app.audit.LogMaintenance(context.Background(), "scan_overdue_copies", "0 loaned copies overdue", nil, nil))
	app.audit.Wait()
}

func TestAuditLogPage(t *testing.T) {
	app := newTestApp(t)
	recordChanges(t, app)

	w := app.get("/audit")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<p>4 events</p>")
	assert.Contains(t, body, "Updated genre: Fantasy &amp; Myth")
	assert.Contains(t, body, "Page 1 of 1")

	w = app.get("/audit?type=delete")
	require.Equal(t, http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(t, body, "<p>1 events</p>")
	assert.Contains(t, body, `<option value="delete" selected>Delete</option>`)
	assert.NotContains(t, body, "Created genre")
}

func TestAuditEventsAPI(t *testing.T) {
	app := newTestApp(t)
	recordChanges(t, app)

	w := app.get("/api/audit?" + url.Values{"entity": {"genre"}, "limit": {"1"}}.Encode())
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []entities.AuditEvent `json:"data"`
		Total      int64                 `json:"total"`
		Page       int                   `json:"page"`
		Limit      int                   `json:"limit"`
		TotalPages int                   `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 1, resp.Limit)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "genre", resp.Data[0].EntityType)
}

func TestAuditRoutes_AbsentWithoutReader(t *testing.T) {
	app := newTestApp(t, func(cfg *RouterConfig) {
		cfg.AuditReader = nil
	})

	w := app.get("/api/audit")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
