// Package redirect classifies QR scans and decides where a visitor goes.
package redirect

import (
	"context"
	"fmt"
	"strings"

	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

const (
	HintProperty   = "property"
	HintBlockchain = "blockchain"
	HintDual       = "dual"

	MessagePropertyNotFound = "Property not found"
	MessageScanFailed       = "Scan failed"

	// AutoRedirectSeconds is how long the landing page waits before sending
	// the visitor to the listing page.
	AutoRedirectSeconds = 10
)

// ScanRequest is everything the engine knows about one scan.
type ScanRequest struct {
	PropertyID   string
	SourceHint   string
	RedirectHint string
	UserAgent    string
	IPAddress    string
	SessionID    string
	Referrer     string
	// Metadata holds tracking values such as ref and utm_* parameters.
	Metadata map[string]string
}

// Decision is the outcome of a scan.
type Decision struct {
	PropertyID   string
	RedirectType models.RedirectType
	ScanID       string
	// Location is set for plain redirects.
	Location string
	// Landing is set for the dual choice page.
	Landing *models.ScanRedirectData
	// Message is set for failed scans.
	Message string
}

// IsRedirect reports whether the visitor should be sent straight to Location.
func (d *Decision) IsRedirect() bool {
	return d.Location != ""
}

// Config holds the URL roots used to build destinations.
type Config struct {
	DaobitatBaseURL           string
	BlockchainExplorerBaseURL string
	// ServiceBaseURL is the public root of this service.
	ServiceBaseURL string
}

type Engine struct {
	properties models.PropertyProvider
	recorder   models.ScanRecorder
	clock      clock.Clock
	logger     *logger.Logger
	cfg        Config
}

func NewEngine(properties models.PropertyProvider, recorder models.ScanRecorder, clk clock.Clock, logger *logger.Logger, cfg Config) *Engine {
	cfg.DaobitatBaseURL = strings.TrimRight(cfg.DaobitatBaseURL, "/")
	cfg.BlockchainExplorerBaseURL = strings.TrimRight(cfg.BlockchainExplorerBaseURL, "/")
	cfg.ServiceBaseURL = strings.TrimRight(cfg.ServiceBaseURL, "/")
	return &Engine{
		properties: properties,
		recorder:   recorder,
		clock:      clk,
		logger:     logger.Named("redirect"),
		cfg:        cfg,
	}
}

// HandleScan classifies a scan. Lookup failures never surface as errors,
// they produce a Failed decision rendered as an error page.
func (e *Engine) HandleScan(ctx context.Context, req ScanRequest) *Decision {
	started := e.clock.Now()
	source := models.ParseScanSource(req.SourceHint)

	info, err := e.properties.GetPropertyQrInfo(ctx, req.PropertyID)
	if err != nil {
		e.logger.Warn("Property not found for scan", "property_id", req.PropertyID, "error", err)
		scanID := e.recorder.TrackFailedScan(models.FailedScanInput{
			PropertyID:  req.PropertyID,
			Source:      source,
			UserAgent:   req.UserAgent,
			IPAddress:   req.IPAddress,
			SessionID:   req.SessionID,
			Referrer:    req.Referrer,
			ErrorReason: MessagePropertyNotFound,
			Metadata:    req.Metadata,
			ScannedAt:   started,
		})
		return &Decision{
			PropertyID:   req.PropertyID,
			RedirectType: models.RedirectFailed,
			ScanID:       scanID,
			Message:      MessagePropertyNotFound,
		}
	}

	redirectType := ResolveRedirectType(req.RedirectHint, info)
	propertyURL := e.PropertyURL(info.ID)
	blockchainURL := e.BlockchainURL(info)

	elapsed := e.clock.Now().Sub(started).Milliseconds()
	scanID := e.recorder.TrackScan(models.ScanInput{
		PropertyID:      info.ID,
		Source:          source,
		UserAgent:       req.UserAgent,
		IPAddress:       req.IPAddress,
		SessionID:       req.SessionID,
		Referrer:        req.Referrer,
		RedirectType:    redirectType,
		RedirectSuccess: true,
		ResponseTimeMs:  &elapsed,
		Metadata:        req.Metadata,
		ScannedAt:       started,
	})
	e.recorder.TrackClick(info.ID)

	decision := &Decision{
		PropertyID:   info.ID,
		RedirectType: redirectType,
		ScanID:       scanID,
	}
	switch redirectType {
	case models.RedirectDaobitarOnly:
		e.logger.Info("Redirecting to property page", "property_id", info.ID)
		decision.Location = propertyURL
	case models.RedirectBlockchainOnly:
		e.logger.Info("Redirecting to blockchain explorer", "property_id", info.ID)
		decision.Location = blockchainURL
	case models.RedirectDual:
		e.logger.Info("Showing dual redirect page", "property_id", info.ID)
		decision.Landing = &models.ScanRedirectData{
			PropertyID:     info.ID,
			PropertyName:   info.PropertyName,
			Location:       info.Location,
			Action:         info.Action,
			FormattedPrice: info.FormattedPrice(),
			PrimaryImage:   info.PrimaryImage(),
			IsVerified:     info.Verified(),
			CryptoAccepted: info.CryptoAccepted,
			PropertyURL:    propertyURL,
			BlockchainURL:  blockchainURL,
			ScanID:         scanID,
		}
	default:
		decision.Message = MessageScanFailed
	}
	return decision
}

// ScanData is the JSON form of a scan. Unlike HandleScan it returns the
// lookup error and records nothing when the listing cannot be served.
func (e *Engine) ScanData(ctx context.Context, req ScanRequest) (*models.ScanResponse, error) {
	info, err := e.properties.GetPropertyQrInfo(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}

	redirectType := ResolveRedirectType(req.RedirectHint, info)
	scanID := e.recorder.TrackScan(models.ScanInput{
		PropertyID:      info.ID,
		Source:          models.ParseScanSource(req.SourceHint),
		UserAgent:       req.UserAgent,
		IPAddress:       req.IPAddress,
		SessionID:       req.SessionID,
		Referrer:        req.Referrer,
		RedirectType:    redirectType,
		RedirectSuccess: true,
		Metadata:        req.Metadata,
	})

	var blockchainURL *string
	if info.HasOnchainID() {
		u := e.BlockchainURL(info)
		blockchainURL = &u
	}
	return &models.ScanResponse{
		Success:      true,
		PropertyID:   info.ID,
		RedirectType: redirectType.Label(),
		URLs: models.ScanURLs{
			PropertyURL:     e.PropertyURL(info.ID),
			BlockchainURL:   blockchainURL,
			RedirectPageURL: models.ScanURL(e.cfg.ServiceBaseURL, info.ID),
		},
		ScanID: scanID,
	}, nil
}

// ResolveRedirectType picks the destination for a scan. A blockchain
// request without an on-chain id falls back to the listing page.
func ResolveRedirectType(hint string, info *models.PropertyQrInfo) models.RedirectType {
	switch hint {
	case HintProperty:
		return models.RedirectDaobitarOnly
	case HintBlockchain:
		if info.HasOnchainID() {
			return models.RedirectBlockchainOnly
		}
		return models.RedirectDaobitarOnly
	default:
		if info.HasOnchainID() {
			return models.RedirectDual
		}
		return models.RedirectDaobitarOnly
	}
}

func (e *Engine) PropertyURL(propertyID string) string {
	return fmt.Sprintf("%s/property/%s", e.cfg.DaobitatBaseURL, propertyID)
}

// BlockchainURL is empty when the listing has no on-chain id.
func (e *Engine) BlockchainURL(info *models.PropertyQrInfo) string {
	if !info.HasOnchainID() {
		return ""
	}
	return fmt.Sprintf("%s/token/%s", e.cfg.BlockchainExplorerBaseURL, *info.OnchainID)
}
