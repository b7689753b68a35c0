package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/health", s.health)
	s.router.GET("/health/live", s.live)
	s.router.GET("/health/ready", s.ready)
	s.router.GET("/health/detailed", s.detailedHealth)

	s.router.GET("/scan/health", s.scanHealth)
	s.router.GET("/scan/:property_id", s.scan)
	s.router.GET("/api/scan/:property_id", s.scanData)

	v1 := s.router.Group("/api/v1")

	qr := v1.Group("/qr")
	qr.POST("/generate/batch", s.batchGenerateQr)
	qr.POST("/generate/missing", s.generateMissingQr)
	qr.POST("/generate/:property_id", s.generateQr)
	qr.GET("", s.listQr)
	qr.GET("/:property_id", s.getQr)
	qr.DELETE("/:property_id", s.deleteQr)
	qr.PUT("/regenerate/:property_id", s.regenerateQr)
	qr.PATCH("/deactivate/:property_id", s.deactivateQr)

	v1.GET("/scan/:property_id", s.scanData)

	analytics := v1.Group("/analytics")
	analytics.GET("/properties/:property_id", s.propertyAnalytics)
	analytics.GET("/properties/:property_id/trends", s.scanTrends)
	analytics.GET("/system", s.systemAnalytics)
	analytics.GET("/top", s.topPerforming)
}
