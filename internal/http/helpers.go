package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/readonly"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// render adds the values every page layout needs and renders the template.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CSRFToken"] = auth.GetCSRFToken(c)
	data["AuthEnabled"] = auth.IsAuthEnabled(c)
	data["CurrentUser"] = auth.GetUsername(c)
	data["ReadOnly"] = readonly.IsReadOnly(c)
	c.HTML(status, name, data)
}

// actor describes who is making the request, for the audit trail.
func actor(c *gin.Context) audit.Actor {
	return audit.Actor{
		UserID:    auth.GetUserID(c),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// parseID parses an unsigned integer id. Zero is never a valid id.
func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseIDParam extracts an id from the route, failing with a 404 carrying
// notFoundMessage when it is malformed.
func parseIDParam(c *gin.Context, notFoundMessage string) (uint, bool) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		fail(c, NotFound(notFoundMessage))
		return 0, false
	}
	return id, true
}

// formIDOrParam reads the id posted in field, falling back to the route id.
func formIDOrParam(c *gin.Context, field string) (uint, bool) {
	if raw := c.PostForm(field); raw != "" {
		return parseID(raw)
	}
	return parseID(c.Param("id"))
}

// pageParams reads ?page= and ?limit= with bounds.
func pageParams(c *gin.Context, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	pages := (int(total) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
}

// bindForm decodes the posted form into dst. Field rules are checked later
// by the forms package; only a body that cannot be decoded fails here, with
// a 400.
func bindForm(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		fail(c, &HTTPError{Status: http.StatusBadRequest, Message: "Malformed form submission", Err: err})
		return false
	}
	return true
}
