package http_api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/WankioM/property-qr/internal/redirect"
)

const htmlContentType = "text/html; charset=utf-8"

// trackingParams are copied from the scan URL into the event metadata.
var trackingParams = []string{"ref", "utm_source", "utm_medium", "utm_campaign"}

func scanRequest(c *gin.Context) redirect.ScanRequest {
	req := redirect.ScanRequest{
		PropertyID:   strings.TrimSpace(c.Param("property_id")),
		SourceHint:   c.Query("source"),
		RedirectHint: c.Query("redirect"),
		UserAgent:    c.GetHeader("User-Agent"),
		IPAddress:    c.ClientIP(),
		SessionID:    c.GetHeader("X-Session-ID"),
		Referrer:     c.GetHeader("Referer"),
	}
	for _, key := range trackingParams {
		if v := c.Query(key); v != "" {
			if req.Metadata == nil {
				req.Metadata = make(map[string]string, len(trackingParams))
			}
			req.Metadata[key] = v
		}
	}
	return req
}

// scan is a handler for GET /scan/:property_id, the URL encoded in every QR
// code.
func (s *HTTPServer) scan(c *gin.Context) {
	decision := s.scans.HandleScan(c.Request.Context(), scanRequest(c))
	noCache(c)

	switch {
	case decision.IsRedirect():
		c.Redirect(http.StatusFound, decision.Location)
	case decision.Landing != nil:
		page, err := redirect.RenderLanding(decision.Landing)
		if err != nil {
			s.logger.Error("Failed to render landing page", "property_id", decision.PropertyID, "error", err)
			c.Redirect(http.StatusFound, decision.Landing.PropertyURL)
			return
		}
		c.Data(http.StatusOK, htmlContentType, page)
	default:
		page, err := redirect.RenderError(decision.Message, decision.PropertyID)
		if err != nil {
			s.logger.Error("Failed to render error page", "property_id", decision.PropertyID, "error", err)
			c.String(http.StatusNotFound, decision.Message)
			return
		}
		c.Data(http.StatusNotFound, htmlContentType, page)
	}
}

// scanData is a handler for GET /api/scan/:property_id and its v1 alias.
func (s *HTTPServer) scanData(c *gin.Context) {
	resp, err := s.scans.ScanData(c.Request.Context(), scanRequest(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	noCache(c)
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) scanHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "scan_handler",
		"timestamp": s.clock.Now(),
	})
}
