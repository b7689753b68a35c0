package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/WankioM/property-qr/internal/models"
)

func (s *Store) InsertScanEvent(_ context.Context, event *models.ScanEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == event.ID {
			return fmt.Errorf("failed to insert scan event %s: duplicate id", event.ID)
		}
	}
	cp := *event
	s.events = append(s.events, &cp)
	return nil
}

// ScanEvents returns every stored event in insertion order.
func (s *Store) ScanEvents() []*models.ScanEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ScanEvent, 0, len(s.events))
	for _, e := range s.events {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

func (s *Store) ListScanEvents(_ context.Context, propertyID string, since time.Time) ([]*models.ScanEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ScanEvent
	for _, e := range s.events {
		if e.PropertyID == propertyID && !e.ScannedAt.Before(since) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out, nil
}

func (s *Store) CountScanEvents(_ context.Context, filter models.ScanEventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.events {
		if matches(e, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountDistinctScanIPs(_ context.Context, filter models.ScanEventFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, e := range s.events {
		if e.IPAddress != "" && matches(e, filter) {
			seen[e.IPAddress] = struct{}{}
		}
	}
	return int64(len(seen)), nil
}

func (s *Store) TopScannedProperties(_ context.Context, filter models.ScanEventFilter, limit int) ([]models.PropertyPerformance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type agg struct {
		total, success int64
		ips            map[string]struct{}
	}
	byProperty := make(map[string]*agg)
	filter.PropertyID = ""
	for _, e := range s.events {
		if !matches(e, filter) {
			continue
		}
		a, ok := byProperty[e.PropertyID]
		if !ok {
			a = &agg{ips: make(map[string]struct{})}
			byProperty[e.PropertyID] = a
		}
		a.total++
		if e.RedirectSuccess {
			a.success++
		}
		if e.IPAddress != "" {
			a.ips[e.IPAddress] = struct{}{}
		}
	}

	out := make([]models.PropertyPerformance, 0, len(byProperty))
	for id, a := range byProperty {
		out = append(out, models.PropertyPerformance{
			PropertyID:  id,
			TotalScans:  a.total,
			UniqueScans: int64(len(a.ips)),
			SuccessRate: float64(a.success) / float64(a.total) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScans == out[j].TotalScans {
			return out[i].PropertyID < out[j].PropertyID
		}
		return out[i].TotalScans > out[j].TotalScans
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DailyScanCounts(_ context.Context, propertyID string, since time.Time) ([]models.DailyScanCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, e := range s.events {
		if e.PropertyID == propertyID && !e.ScannedAt.Before(since) {
			counts[e.ScannedAt.UTC().Format(time.DateOnly)]++
		}
	}
	out := make([]models.DailyScanCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, models.DailyScanCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *Store) DeleteScanEventsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.events[:0]
	var deleted int64
	for _, e := range s.events {
		if e.ScannedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return deleted, nil
}

func (s *Store) GetPropertyAnalytics(_ context.Context, propertyID string) (*models.PropertyScanAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analytics[propertyID]
	if !ok {
		return nil, fmt.Errorf("failed to get analytics for %s: %w", propertyID, models.ErrRecordNotFound)
	}
	return copyAnalytics(a), nil
}

func (s *Store) SavePropertyAnalytics(_ context.Context, analytics *models.PropertyScanAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[analytics.PropertyID] = copyAnalytics(analytics)
	return nil
}

func (s *Store) GetSystemAnalytics(context.Context) (*models.SystemAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.system == nil {
		return nil, fmt.Errorf("failed to get system analytics: %w", models.ErrRecordNotFound)
	}
	cp := *s.system
	cp.TopPerformingProperties = append([]models.PropertyPerformance(nil), s.system.TopPerformingProperties...)
	return &cp, nil
}

func (s *Store) SaveSystemAnalytics(_ context.Context, analytics *models.SystemAnalytics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *analytics
	cp.TopPerformingProperties = append([]models.PropertyPerformance(nil), analytics.TopPerformingProperties...)
	s.system = &cp
	return nil
}

func matches(e *models.ScanEvent, f models.ScanEventFilter) bool {
	if f.PropertyID != "" && e.PropertyID != f.PropertyID {
		return false
	}
	if !f.Since.IsZero() && e.ScannedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !e.ScannedAt.Before(f.Until) {
		return false
	}
	return true
}

func copyAnalytics(a *models.PropertyScanAnalytics) *models.PropertyScanAnalytics {
	cp := *a
	cp.DailyTrends = append([]models.DailyScanCount(nil), a.DailyTrends...)
	cp.TopCountries = append([]models.CountryStats(nil), a.TopCountries...)
	return &cp
}
