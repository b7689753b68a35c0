package http_api

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/WankioM/property-qr/internal/models"
)

// generateQr is a handler for POST /api/v1/qr/generate/:property_id. The
// body is optional.
func (s *HTTPServer) generateQr(c *gin.Context) {
	propertyID := c.Param("property_id")

	var req models.GenerateQrRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Debug("Invalid request body", "error", err)
		s.failValidation(c, "Invalid request body: "+err.Error())
		return
	}
	if req.PropertyID != "" && req.PropertyID != propertyID {
		s.failValidation(c, "Property ID in path does not match request body")
		return
	}

	reason, ok := reasonOrDefault(req.Reason, models.ReasonNewProperty)
	if !ok {
		s.failValidation(c, fmt.Sprintf("Invalid generation reason: %s", *req.Reason))
		return
	}
	force := req.ForceRegenerate != nil && *req.ForceRegenerate

	resp, err := s.qr.Generate(c.Request.Context(), propertyID, force, reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, resp)
}

// batchGenerateQr is a handler for POST /api/v1/qr/generate/batch.
func (s *HTTPServer) batchGenerateQr(c *gin.Context) {
	var req models.BatchGenerateQrRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Debug("Invalid request body", "error", err)
		s.failValidation(c, "Invalid request body: "+err.Error())
		return
	}
	if len(req.PropertyIDs) == 0 {
		s.failValidation(c, "Property IDs list cannot be empty")
		return
	}
	if len(req.PropertyIDs) > s.cfg.BatchMaxSize {
		s.failValidation(c, fmt.Sprintf("Cannot process more than %d properties at once", s.cfg.BatchMaxSize))
		return
	}

	reason, ok := reasonOrDefault(req.Reason, models.ReasonBatchGeneration)
	if !ok {
		s.failValidation(c, fmt.Sprintf("Invalid generation reason: %s", *req.Reason))
		return
	}
	force := req.ForceRegenerate != nil && *req.ForceRegenerate

	resp, err := s.qr.BatchGenerate(c.Request.Context(), req.PropertyIDs, force, reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Info("Batch QR generation completed",
		"successful", resp.TotalSuccessful,
		"failed", resp.TotalFailed)
	s.ok(c, resp)
}

func (s *HTTPServer) generateMissingQr(c *gin.Context) {
	resp, err := s.qr.GenerateMissing(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, resp)
}

// listQr is a handler for GET /api/v1/qr?limit=&skip=&property_id=&active_only=.
func (s *HTTPServer) listQr(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	skip, err := queryInt(c, "skip", 0)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}
	activeOnly, err := queryBool(c, "active_only", false)
	if err != nil {
		s.failValidation(c, err.Error())
		return
	}

	qrs, err := s.qr.ListQrCodes(c.Request.Context(), models.QrListFilter{
		Limit:      limit,
		Skip:       skip,
		PropertyID: c.Query("property_id"),
		ActiveOnly: activeOnly,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	if qrs == nil {
		qrs = []*models.QrCodeMetadata{}
	}
	s.ok(c, qrs)
}

func (s *HTTPServer) getQr(c *gin.Context) {
	qr, err := s.qr.GetQrCode(c.Request.Context(), c.Param("property_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, qr)
}

func (s *HTTPServer) deleteQr(c *gin.Context) {
	propertyID := c.Param("property_id")
	deleted, err := s.qr.DeleteQrCode(c.Request.Context(), propertyID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deleted {
		s.fail(c, qrNotFound(propertyID, "QR code not found for deletion"))
		return
	}
	s.ok(c, gin.H{"deleted": true, "property_id": propertyID})
}

// regenerateQr is a handler for PUT /api/v1/qr/regenerate/:property_id?reason=.
func (s *HTTPServer) regenerateQr(c *gin.Context) {
	reason := models.ReasonManualRegeneration
	if raw := c.Query("reason"); raw != "" {
		parsed, ok := models.ParseQrGenerationReason(raw)
		if !ok {
			s.failValidation(c, fmt.Sprintf("Invalid generation reason: %s", raw))
			return
		}
		reason = parsed
	}

	resp, err := s.qr.Generate(c.Request.Context(), c.Param("property_id"), true, reason)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.ok(c, resp)
}

func (s *HTTPServer) deactivateQr(c *gin.Context) {
	propertyID := c.Param("property_id")
	deactivated, err := s.qr.DeactivateQrCode(c.Request.Context(), propertyID)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !deactivated {
		s.fail(c, qrNotFound(propertyID, "QR code not found for deactivation"))
		return
	}
	s.ok(c, gin.H{"deactivated": true, "property_id": propertyID})
}

func qrNotFound(propertyID, message string) error {
	err := models.ErrQrNotFound(propertyID)
	err.Message = message
	return err
}

func reasonOrDefault(reason *models.QrGenerationReason, fallback models.QrGenerationReason) (models.QrGenerationReason, bool) {
	if reason == nil || *reason == "" {
		return fallback, true
	}
	return models.ParseQrGenerationReason(string(*reason))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, raw)
	}
	return v, nil
}

func queryBool(c *gin.Context, key string, fallback bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, raw)
	}
	return v, nil
}
