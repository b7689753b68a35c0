package models

import (
	"math"
	"time"
)

// dailyTrendDays is how many days of per-day counts a property keeps.
const dailyTrendDays = 30

// DeviceBreakdown counts scans per device bucket.
type DeviceBreakdown struct {
	Mobile  int64 `json:"mobile" gorm:"column:mobile;not null;default:0"`
	Desktop int64 `json:"desktop" gorm:"column:desktop;not null;default:0"`
	Tablet  int64 `json:"tablet" gorm:"column:tablet;not null;default:0"`
	Unknown int64 `json:"unknown" gorm:"column:unknown;not null;default:0"`
}

func (d *DeviceBreakdown) Add(device *DeviceInfo) {
	if device == nil {
		d.Unknown++
		return
	}
	switch device.DeviceType {
	case DeviceMobile:
		d.Mobile++
	case DeviceDesktop:
		d.Desktop++
	case DeviceTablet:
		d.Tablet++
	default:
		d.Unknown++
	}
}

type CountryStats struct {
	Country    string  `json:"country"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailyScanCount is the number of scans on one UTC day (YYYY-MM-DD).
type DailyScanCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// PropertyScanAnalytics is the rolled-up view of a listing's scans.
type PropertyScanAnalytics struct {
	PropertyID            string           `json:"propertyId" gorm:"column:property_id;primaryKey;size:64"`
	TotalScans            int64            `json:"totalScans" gorm:"column:total_scans;not null;default:0"`
	UniqueScans           int64            `json:"uniqueScans" gorm:"column:unique_scans;not null;default:0"`
	LastScanned           *time.Time       `json:"lastScanned,omitempty" gorm:"column:last_scanned"`
	FirstScanned          *time.Time       `json:"firstScanned,omitempty" gorm:"column:first_scanned"`
	ScansToday            int64            `json:"scansToday" gorm:"column:scans_today;not null;default:0"`
	ScansThisWeek         int64            `json:"scansThisWeek" gorm:"column:scans_this_week;not null;default:0"`
	ScansThisMonth        int64            `json:"scansThisMonth" gorm:"column:scans_this_month;not null;default:0"`
	DeviceBreakdown       DeviceBreakdown  `json:"deviceBreakdown" gorm:"embedded;embeddedPrefix:device_"`
	TopCountries          []CountryStats   `json:"topCountries" gorm:"column:top_countries;serializer:json"`
	DailyTrends           []DailyScanCount `json:"dailyTrends" gorm:"column:daily_trends;serializer:json"`
	AverageResponseTimeMs *float64         `json:"averageResponseTimeMs,omitempty" gorm:"column:average_response_time_ms"`
	SuccessRate           float64          `json:"successRate" gorm:"column:success_rate;not null;default:100"`
	CreatedAt             time.Time        `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt             time.Time        `json:"updatedAt" gorm:"column:updated_at"`
}

func (PropertyScanAnalytics) TableName() string {
	return "property_scan_analytics"
}

// NewPropertyScanAnalytics starts an empty rollup with a 100% success rate.
func NewPropertyScanAnalytics(propertyID string, now time.Time) *PropertyScanAnalytics {
	return &PropertyScanAnalytics{
		PropertyID:   propertyID,
		TopCountries: []CountryStats{},
		DailyTrends:  []DailyScanCount{},
		SuccessRate:  100,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApplyScan folds one event into the incremental counters. Unique and
// period counters are recomputed from raw events by the aggregator.
func (a *PropertyScanAnalytics) ApplyScan(event *ScanEvent, now time.Time) {
	a.TotalScans++
	n := float64(a.TotalScans)

	scannedAt := event.ScannedAt
	a.LastScanned = &scannedAt
	if a.FirstScanned == nil {
		a.FirstScanned = &scannedAt
	}

	a.DeviceBreakdown.Add(event.Device)

	outcome := 0.0
	if event.RedirectSuccess {
		outcome = 100
	}
	a.SuccessRate = (a.SuccessRate*(n-1) + outcome) / n

	if event.ResponseTimeMs != nil {
		ms := float64(*event.ResponseTimeMs)
		if a.AverageResponseTimeMs == nil {
			a.AverageResponseTimeMs = &ms
		} else {
			// events without a timing still count in n, the average tolerates the skew
			avg := (*a.AverageResponseTimeMs*(n-1) + ms) / n
			a.AverageResponseTimeMs = &avg
		}
	}

	a.addDailyTrend(scannedAt)
	a.UpdatedAt = now
}

func (a *PropertyScanAnalytics) addDailyTrend(at time.Time) {
	day := at.UTC().Format(time.DateOnly)
	for i := range a.DailyTrends {
		if a.DailyTrends[i].Date == day {
			a.DailyTrends[i].Count++
			return
		}
	}
	a.DailyTrends = append(a.DailyTrends, DailyScanCount{Date: day, Count: 1})
	if len(a.DailyTrends) > dailyTrendDays {
		a.DailyTrends = a.DailyTrends[len(a.DailyTrends)-dailyTrendDays:]
	}
}

// PropertyPerformance is one leaderboard row.
type PropertyPerformance struct {
	PropertyID   string  `json:"propertyId"`
	PropertyName string  `json:"propertyName"`
	TotalScans   int64   `json:"totalScans"`
	UniqueScans  int64   `json:"uniqueScans"`
	SuccessRate  float64 `json:"successRate"`
}

// QrGenerationStats counts issued QR records.
type QrGenerationStats struct {
	TotalGenerated     int64    `json:"totalGenerated" gorm:"column:total_generated;not null;default:0"`
	GeneratedToday     int64    `json:"generatedToday" gorm:"column:generated_today;not null;default:0"`
	GeneratedThisWeek  int64    `json:"generatedThisWeek" gorm:"column:generated_this_week;not null;default:0"`
	GeneratedThisMonth int64    `json:"generatedThisMonth" gorm:"column:generated_this_month;not null;default:0"`
	FailureRate        float64  `json:"failureRate" gorm:"column:failure_rate;not null;default:0"`
	AvgGenerationMs    *float64 `json:"averageGenerationTimeMs,omitempty" gorm:"column:avg_generation_ms"`
}

// SystemAnalyticsID is the primary key of the single system analytics row.
const SystemAnalyticsID = 1

// SystemAnalytics is the service-wide rollup, recomputed from counts.
type SystemAnalytics struct {
	ID                      int                   `json:"-" gorm:"column:id;primaryKey"`
	TotalProperties         int64                 `json:"totalProperties" gorm:"column:total_properties"`
	PropertiesWithQr        int64                 `json:"propertiesWithQr" gorm:"column:properties_with_qr"`
	TotalScansAllTime       int64                 `json:"totalScansAllTime" gorm:"column:total_scans_all_time"`
	TotalScansToday         int64                 `json:"totalScansToday" gorm:"column:total_scans_today"`
	TotalScansThisWeek      int64                 `json:"totalScansThisWeek" gorm:"column:total_scans_this_week"`
	TotalScansThisMonth     int64                 `json:"totalScansThisMonth" gorm:"column:total_scans_this_month"`
	AverageScansPerProperty float64               `json:"averageScansPerProperty" gorm:"column:average_scans_per_property"`
	TopPerformingProperties []PropertyPerformance `json:"topPerformingProperties" gorm:"column:top_performing_properties;serializer:json"`
	QrGenerationStats       QrGenerationStats     `json:"qrGenerationStats" gorm:"embedded;embeddedPrefix:qr_"`
	LastUpdated             time.Time             `json:"lastUpdated" gorm:"column:last_updated"`
}

func (SystemAnalytics) TableName() string {
	return "system_analytics"
}

func NewSystemAnalytics(now time.Time) *SystemAnalytics {
	return &SystemAnalytics{
		ID:                      SystemAnalyticsID,
		TopPerformingProperties: []PropertyPerformance{},
		LastUpdated:             now,
	}
}

// PeriodStats summarizes a time window.
type PeriodStats struct {
	TotalScans      int64   `json:"totalScans"`
	UniqueScans     int64   `json:"uniqueScans"`
	AvgScansPerDay  float64 `json:"avgScansPerDay"`
	TopPropertyID   string  `json:"topPropertyId,omitempty"`
	TopPropertyName string  `json:"topPropertyName,omitempty"`
}

// PeriodComparison compares the current window with the previous one.
type PeriodComparison struct {
	CurrentPeriod    PeriodStats `json:"currentPeriod"`
	PreviousPeriod   PeriodStats `json:"previousPeriod"`
	PercentageChange float64     `json:"percentageChange"`
}

// PercentageChange is 0 when the previous value is 0 and current is 0, and
// 100 when only the previous value is 0.
func PercentageChange(previous, current int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	change := float64(current-previous) / float64(previous) * 100
	return math.Round(change*100) / 100
}

type ScanAnalyticsResponse struct {
	PropertyID  string                 `json:"propertyId"`
	Analytics   *PropertyScanAnalytics `json:"analytics"`
	RecentScans []*ScanEvent           `json:"recentScans,omitempty"`
}

type SystemAnalyticsResponse struct {
	Analytics        *SystemAnalytics  `json:"analytics"`
	PeriodComparison *PeriodComparison `json:"periodComparison,omitempty"`
}
