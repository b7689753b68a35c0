package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/WankioM/property-qr/internal/clock"
	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
	"github.com/WankioM/property-qr/pkg/validation"
)

// Service reads listings for QR issuance and scan handling.
type Service struct {
	repo   models.PropertyRepository
	clock  clock.Clock
	logger *logger.Logger
}

func NewService(repo models.PropertyRepository, clk clock.Clock, logger *logger.Logger) *Service {
	return &Service{repo: repo, clock: clk, logger: logger.Named("property")}
}

// GetPropertyQrInfo returns the listing projection if the id is well formed,
// the listing exists and it is eligible.
func (s *Service) GetPropertyQrInfo(ctx context.Context, id string) (*models.PropertyQrInfo, error) {
	if err := validation.ValidatePropertyID(id); err != nil {
		return nil, models.ErrInvalidPropertyID(id, err)
	}

	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, models.ErrPropertyNotFound(id)
		}
		return nil, models.ErrDatabase(id, err)
	}

	info := p.QrInfo()
	if !IsEligible(info) {
		reason := IneligibilityReason(info)
		s.logger.Debug("Property not eligible", "property_id", id, "reason", reason)
		return nil, models.ErrPropertyNotEligible(id, reason)
	}
	return info, nil
}

// ListEligible returns eligible listings ordered by id. A limit of 0 means
// no limit.
func (s *Service) ListEligible(ctx context.Context, limit int) ([]*models.PropertyQrInfo, error) {
	props, err := s.repo.ListEligibleProperties(ctx, limit)
	if err != nil {
		return nil, models.ErrDatabase("", fmt.Errorf("failed to list eligible properties: %w", err))
	}
	out := make([]*models.PropertyQrInfo, 0, len(props))
	for _, p := range props {
		out = append(out, p.QrInfo())
	}
	return out, nil
}

// ListNeedingQr returns the eligible listings whose ids are not in
// existingIDs.
func (s *Service) ListNeedingQr(ctx context.Context, existingIDs []string) ([]string, error) {
	eligible, err := s.ListEligible(ctx, 0)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}
	var missing []string
	for _, info := range eligible {
		if _, ok := existing[info.ID]; !ok {
			missing = append(missing, info.ID)
		}
	}
	s.logger.Debug("Listings needing a QR code", "eligible", len(eligible), "missing", len(missing))
	return missing, nil
}

func (s *Service) IncrementClicks(ctx context.Context, id string) error {
	if err := s.repo.IncrementPropertyClicks(ctx, id, s.clock.Now()); err != nil {
		return fmt.Errorf("failed to increment clicks for %s: %w", id, err)
	}
	return nil
}

func (s *Service) Names(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	return s.repo.GetPropertyNames(ctx, ids)
}

func (s *Service) Stats(ctx context.Context) (*models.PropertyStats, error) {
	return s.repo.GetPropertyStats(ctx)
}
