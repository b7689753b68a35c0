package http_api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/WankioM/property-qr/internal/models"
)

// SuccessResponse wraps every successful API payload.
type SuccessResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Success   bool              `json:"success"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Path      string            `json:"path,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

var kindStatus = map[models.ErrorKind]int{
	models.KindValidation: http.StatusBadRequest,
	models.KindNotFound:   http.StatusNotFound,
	models.KindConflict:   http.StatusConflict,
	models.KindIneligible: http.StatusUnprocessableEntity,
	models.KindGeneration: http.StatusInternalServerError,
	models.KindUpstream:   http.StatusBadGateway,
	models.KindInternal:   http.StatusInternalServerError,
}

// StatusFor maps a classified error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := kindStatus[models.ErrorKindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (s *HTTPServer) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, SuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: s.clock.Now(),
	})
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	body := ErrorResponse{
		Error:     strings.ToLower(models.CodeInternalError),
		Message:   "Internal server error",
		Timestamp: s.clock.Now(),
		Path:      c.Request.URL.Path,
	}
	if e, ok := models.AsError(err); ok {
		body.Error = strings.ToLower(e.Code)
		body.Message = e.Message
		ctx := map[string]string{}
		if e.PropertyID != "" {
			ctx["property_id"] = e.PropertyID
		}
		if e.Operation != "" {
			ctx["operation"] = e.Operation
		}
		if len(ctx) > 0 {
			body.Context = ctx
		}
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", body.Path, "error", err)
	}
	c.JSON(status, body)
}

func (s *HTTPServer) failValidation(c *gin.Context, message string) {
	s.fail(c, models.ErrValidation(message))
}
