// Package memory is an in-process implementation of models.Repository used by
// tests and the "memory" store driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/WankioM/property-qr/internal/models"
)

type Store struct {
	mu sync.RWMutex

	properties map[string]*models.Property
	clicks     []models.PropertyClick
	qrs        map[string]*models.QrCodeMetadata
	events     []*models.ScanEvent
	analytics  map[string]*models.PropertyScanAnalytics
	system     *models.SystemAnalytics
}

var _ models.Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		properties: make(map[string]*models.Property),
		qrs:        make(map[string]*models.QrCodeMetadata),
		analytics:  make(map[string]*models.PropertyScanAnalytics),
	}
}

// AddProperty inserts or replaces a listing.
func (s *Store) AddProperty(p *models.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.properties[p.ID] = &cp
}

// Clicks returns the recorded click history of a listing.
func (s *Store) Clicks(propertyID string) []models.PropertyClick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.PropertyClick
	for _, c := range s.clicks {
		if c.PropertyID == propertyID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Properties

func (s *Store) GetProperty(_ context.Context, id string) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.properties[id]
	if !ok {
		return nil, fmt.Errorf("failed to get property %s: %w", id, models.ErrRecordNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListEligibleProperties(_ context.Context, limit int) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Property
	for _, p := range s.properties {
		if eligible(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetPropertyNames(_ context.Context, ids []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if p, ok := s.properties[id]; ok {
			names[id] = p.PropertyName
		}
	}
	return names, nil
}

func (s *Store) GetPropertyStats(context.Context) (*models.PropertyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := &models.PropertyStats{}
	for _, p := range s.properties {
		info := p.QrInfo()
		stats.Total++
		if !info.IsRemoved() {
			stats.Active++
		}
		if info.Verified() {
			stats.Verified++
		}
		if len(info.Images) > 0 {
			stats.WithImages++
		}
		if eligible(p) {
			stats.Eligible++
		}
	}
	return stats, nil
}

func (s *Store) IncrementPropertyClicks(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.properties[id]
	if !ok {
		return fmt.Errorf("failed to increment clicks for %s: %w", id, models.ErrRecordNotFound)
	}
	p.Clicks++
	s.clicks = append(s.clicks, models.PropertyClick{
		ID:         int64(len(s.clicks) + 1),
		PropertyID: id,
		ClickedAt:  at,
	})
	return nil
}

func eligible(p *models.Property) bool {
	info := p.QrInfo()
	return !info.IsRemoved() && len(info.Images) > 0 && info.Price > 0
}

// QR records

func (s *Store) GetQrByPropertyID(_ context.Context, propertyID string) (*models.QrCodeMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.qrs[propertyID]
	if !ok {
		return nil, fmt.Errorf("failed to get qr code for %s: %w", propertyID, models.ErrRecordNotFound)
	}
	cp := *q
	return &cp, nil
}

func (s *Store) SaveQr(_ context.Context, qr *models.QrCodeMetadata, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.qrs[qr.PropertyID]
	switch {
	case expectedVersion == 0 && exists:
		return fmt.Errorf("failed to create qr code for %s: %w", qr.PropertyID, models.ErrVersionConflict)
	case expectedVersion > 0 && (!exists || current.QrVersion != expectedVersion):
		return fmt.Errorf("failed to update qr code for %s: %w", qr.PropertyID, models.ErrVersionConflict)
	}
	cp := *qr
	s.qrs[qr.PropertyID] = &cp
	return nil
}

func (s *Store) DeleteQr(_ context.Context, propertyID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.qrs[propertyID]
	delete(s.qrs, propertyID)
	return ok, nil
}

func (s *Store) DeactivateQr(_ context.Context, propertyID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.qrs[propertyID]
	if !ok {
		return false, nil
	}
	q.Deactivate(at)
	return true, nil
}

func (s *Store) ListQrs(_ context.Context, filter models.QrListFilter) ([]*models.QrCodeMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.QrCodeMetadata
	for _, q := range s.qrs {
		if filter.PropertyID != "" && q.PropertyID != filter.PropertyID {
			continue
		}
		if filter.ActiveOnly && !q.IsActive {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	if filter.Skip >= len(out) {
		return []*models.QrCodeMetadata{}, nil
	}
	out = out[filter.Skip:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) ListQrPropertyIDsGeneratedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, q := range s.qrs {
		if q.IsActive && q.GeneratedAt.Before(cutoff) {
			ids = append(ids, q.PropertyID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListQrPropertyIDsUpdatedBefore(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, q := range s.qrs {
		if q.IsActive && q.GeneratedAt.Before(cutoff) && q.LastUpdated.Before(cutoff) {
			ids = append(ids, q.PropertyID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListQrPropertyIDs(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.qrs))
	for id := range s.qrs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) CountQrs(_ context.Context, since time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, q := range s.qrs {
		if since.IsZero() || !q.GeneratedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
