package http_api

import (
	"github.com/gin-gonic/gin"
)

// propertyAnalytics is a handler for GET /api/v1/analytics/properties/:property_id?recent=.
func (s *HTTPServer) propertyAnalytics(c *gin.Context) {
	recent, err := queryBool(c, "recent", false)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	resp, err := s.analytics.PropertyAnalytics(c.Request.Context(), c.Param("property_id"), recent)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, resp)
}

func (s *HTTPServer) scanTrends(c *gin.Context) {
	days, err := queryInt(c, "days", 0)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	trends, err := s.analytics.ScanTrends(c.Request.Context(), c.Param("property_id"), days)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, gin.H{"property_id": c.Param("property_id"), "trends": trends})
}

func (s *HTTPServer) systemAnalytics(c *gin.Context) {
	compare, err := queryBool(c, "compare", false)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	resp, err := s.analytics.SystemAnalytics(c.Request.Context(), compare)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, resp)
}

func (s *HTTPServer) topPerforming(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	days, err := queryInt(c, "days", 0)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	top, err := s.analytics.TopPerforming(c.Request.Context(), limit, days)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, top)
}
