package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

const auditPageSize = 25

type AuditController struct {
	reader AuditReader
}

func NewAuditController(reader AuditReader) *AuditController {
	return &AuditController{reader: reader}
}

type EventTypeOption struct {
	Value string
	Label string
}

func eventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventCreate), Label: "Create"},
		{Value: string(entities.AuditEventUpdate), Label: "Update"},
		{Value: string(entities.AuditEventDelete), Label: "Delete"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
		{Value: string(entities.AuditEventMaintenance), Label: "Maintenance"},
	}
}

func filterFromQuery(c *gin.Context) auditRepo.Filter {
	return auditRepo.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity"),
	}
}

// AuditLogPage renders the audit log UI
// GET /audit
func (ac *AuditController) AuditLogPage(c *gin.Context) {
	page, limit := pageParams(c, auditPageSize, auditPageSize)
	filter := filterFromQuery(c)

	events, total, err := ac.reader.GetEvents(c.Request.Context(), filter, limit, (page-1)*limit)
	if err != nil {
		fail(c, err)
		return
	}

	render(c, http.StatusOK, "audit", gin.H{
		"Title":       "Audit Log",
		"Events":      events,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, limit),
		"TotalEvents": total,
		"EventType":   string(filter.EventType),
		"EventTypes":  eventTypes(),
	})
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, limit := pageParams(c, auditPageSize, 100)

	events, total, err := ac.reader.GetEvents(c.Request.Context(), filterFromQuery(c), limit, (page-1)*limit)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	})
}
