package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HTTPError is an error with the status and message shown to the client.
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// NotFound builds a 404 error with a user-facing message.
func NotFound(message string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: message}
}

// lookupError turns a missing record into a 404 and passes everything else through.
func lookupError(err error, notFoundMessage string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &HTTPError{Status: http.StatusNotFound, Message: notFoundMessage, Err: err}
	}
	return err
}

// fail hands err to ErrorHandler and stops the handler chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

const internalErrorMessage = "Something went wrong"

// ErrorHandler renders the last error pushed with c.Error. The "error"
// template is used for pages and JSON for API clients. Messages of errors
// that are not HTTPError are logged and never shown.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		message := internalErrorMessage

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Status
			message = httpErr.Message
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}

		if isAPIRequest(c) {
			c.JSON(status, ErrorResponse{Error: message})
			return
		}

		render(c, status, "error", gin.H{
			"Title":   message,
			"Message": message,
			"Status":  status,
		})
	}
}

func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
