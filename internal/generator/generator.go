// Package generator issues, regenerates and retires property QR codes.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/internal/storage"
	"github.com/WankioM/property-qr/pkg/logger"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	generatedBy = "system"
)

// Deps are the collaborators of a Generator.
type Deps struct {
	Repo       models.QrRepository
	Properties models.PropertyProvider
	Encoder    models.ImageEncoder
	Store      models.ObjectStore
	Clock      clock.Clock
	IDs        clock.IDGenerator
	Logger     *logger.Logger
}

// Config holds generator settings.
type Config struct {
	// BaseURL is the public root of this service, scan URLs hang off it.
	BaseURL  string
	Settings models.QrGenerationSettings
	// BatchConcurrency caps parallel generations within a batch.
	BatchConcurrency int
}

type Generator struct {
	repo       models.QrRepository
	properties models.PropertyProvider
	encoder    models.ImageEncoder
	store      models.ObjectStore
	clock      clock.Clock
	ids        clock.IDGenerator
	logger     *logger.Logger

	baseURL     string
	concurrency int

	settingsMu sync.RWMutex
	settings   models.QrGenerationSettings
}

var _ models.QrService = (*Generator)(nil)

func NewGenerator(deps Deps, cfg Config) *Generator {
	concurrency := cfg.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Generator{
		repo:        deps.Repo,
		properties:  deps.Properties,
		encoder:     deps.Encoder,
		store:       deps.Store,
		clock:       deps.Clock,
		ids:         deps.IDs,
		logger:      deps.Logger.Named("generator"),
		baseURL:     cfg.BaseURL,
		concurrency: concurrency,
		settings:    cfg.Settings,
	}
}

// Settings returns the current rendering settings.
func (g *Generator) Settings() models.QrGenerationSettings {
	g.settingsMu.RLock()
	defer g.settingsMu.RUnlock()
	return g.settings
}

// UpdateSettings replaces the rendering settings used by later generations.
func (g *Generator) UpdateSettings(settings models.QrGenerationSettings) {
	g.settingsMu.Lock()
	defer g.settingsMu.Unlock()
	g.settings = settings
}

// Generate issues a QR code for a listing. Without force an active record is
// returned as is. The record is saved only after the image is stored.
func (g *Generator) Generate(ctx context.Context, propertyID string, force bool, reason models.QrGenerationReason) (*models.QrCodeResponse, error) {
	start := g.clock.Now()

	existing, err := g.repo.GetQrByPropertyID(ctx, propertyID)
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.ErrDatabase(propertyID, err).WithOperation("generate")
	}

	if !force && existing != nil && existing.IsActive {
		g.logger.Debug("QR code already exists", "property_id", propertyID, "version", existing.QrVersion)
		return models.NewQrCodeResponse(existing, g.baseURL, models.QrStatusExists), nil
	}

	info, err := g.properties.GetPropertyQrInfo(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	now := g.clock.Now()
	pattern, err := models.NewQrCodeData(propertyID, g.baseURL, now).ToJSON()
	if err != nil {
		return nil, models.ErrQrGenerationFailed(propertyID, err)
	}

	image, err := g.encoder.Encode(pattern, g.Settings())
	if err != nil {
		return nil, models.ErrQrGenerationFailed(propertyID, err)
	}

	url, err := g.store.Put(ctx, models.QrImageKey(propertyID), image, storage.ContentTypePNG)
	if err != nil {
		return nil, models.ErrUploadFailed(propertyID, err)
	}

	metadata := models.NewQrMetadata(info, generatedBy, reason)

	var (
		record          *models.QrCodeMetadata
		expectedVersion int
	)
	if existing != nil {
		record = existing
		expectedVersion = existing.QrVersion
		record.Regenerate(pattern, url, metadata, now)
	} else {
		record = models.NewQrCodeMetadata(g.ids.New(), propertyID, pattern, url, metadata, now)
	}

	g.publishMetadata(ctx, record)

	if err := g.repo.SaveQr(ctx, record, expectedVersion); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			return nil, models.ErrConflict(propertyID, err)
		}
		return nil, models.ErrDatabase(propertyID, err).WithOperation("save")
	}

	status := models.QrStatusGenerated
	if force {
		status = models.QrStatusRegenerated
	}
	g.logger.Info("QR code generated",
		"property_id", propertyID,
		"version", record.QrVersion,
		"status", status,
		"reason", reason,
		"duration_ms", g.clock.Now().Sub(start).Milliseconds(),
	)
	return models.NewQrCodeResponse(record, g.baseURL, status), nil
}

// publishMetadata writes the JSON description next to the image. Failures
// are logged only.
func (g *Generator) publishMetadata(ctx context.Context, record *models.QrCodeMetadata) {
	doc, err := json.Marshal(struct {
		*models.QrCodeMetadata
		ScanURL string `json:"scanUrl"`
	}{record, models.ScanURL(g.baseURL, record.PropertyID)})
	if err != nil {
		g.logger.Warn("Failed to encode QR metadata document", "property_id", record.PropertyID, "error", err)
		return
	}
	if _, err := g.store.Put(ctx, record.MetadataS3Key(), doc, storage.ContentTypeJSON); err != nil {
		g.logger.Warn("Failed to upload QR metadata document", "property_id", record.PropertyID, "error", err)
	}
}

func (g *Generator) GetQrCode(ctx context.Context, propertyID string) (*models.QrCodeMetadata, error) {
	qr, err := g.repo.GetQrByPropertyID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, models.ErrQrNotFound(propertyID)
		}
		return nil, models.ErrDatabase(propertyID, err)
	}
	return qr, nil
}

// DeleteQrCode removes the record and, best effort, its stored objects.
func (g *Generator) DeleteQrCode(ctx context.Context, propertyID string) (bool, error) {
	for _, key := range []string{models.QrImageKey(propertyID), models.QrMetadataKey(propertyID)} {
		if _, err := g.store.Delete(ctx, key); err != nil {
			g.logger.Warn("Failed to delete stored object", "property_id", propertyID, "key", key, "error", err)
		}
	}

	deleted, err := g.repo.DeleteQr(ctx, propertyID)
	if err != nil {
		return false, models.ErrDatabase(propertyID, err)
	}
	if deleted {
		g.logger.Info("QR code deleted", "property_id", propertyID)
	}
	return deleted, nil
}

func (g *Generator) DeactivateQrCode(ctx context.Context, propertyID string) (bool, error) {
	ok, err := g.repo.DeactivateQr(ctx, propertyID, g.clock.Now())
	if err != nil {
		return false, models.ErrDatabase(propertyID, err)
	}
	if ok {
		g.logger.Info("QR code deactivated", "property_id", propertyID)
	}
	return ok, nil
}

// ListQrCodes lists records newest first. The limit defaults to 50 and is
// capped at 100.
func (g *Generator) ListQrCodes(ctx context.Context, filter models.QrListFilter) ([]*models.QrCodeMetadata, error) {
	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultListLimit
	case filter.Limit > MaxListLimit:
		filter.Limit = MaxListLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	qrs, err := g.repo.ListQrs(ctx, filter)
	if err != nil {
		return nil, models.ErrDatabase(filter.PropertyID, err)
	}
	return qrs, nil
}

// QrCodesNeedingRegeneration returns active records older than expiryDays.
func (g *Generator) QrCodesNeedingRegeneration(ctx context.Context, expiryDays int) ([]string, error) {
	ids, err := g.repo.ListQrPropertyIDsGeneratedBefore(ctx, g.expiryCutoff(expiryDays))
	if err != nil {
		return nil, models.ErrDatabase("", err)
	}
	return ids, nil
}

// RegenerateExpired force-regenerates every record older than expiryDays.
// generated_at never moves, so a record only qualifies again once it has
// also gone expiryDays without an update.
func (g *Generator) RegenerateExpired(ctx context.Context, expiryDays int) (*models.BatchQrCodeResponse, error) {
	ids, err := g.repo.ListQrPropertyIDsUpdatedBefore(ctx, g.expiryCutoff(expiryDays))
	if err != nil {
		return nil, models.ErrDatabase("", err)
	}
	g.logger.Info("Regenerating expired QR codes", "count", len(ids), "expiry_days", expiryDays)
	return g.BatchGenerate(ctx, ids, true, models.ReasonExpiredQr)
}

func (g *Generator) expiryCutoff(expiryDays int) time.Time {
	return g.clock.Now().Add(-time.Duration(expiryDays) * 24 * time.Hour)
}
