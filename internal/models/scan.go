package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScanSource is where a scan came from.
type ScanSource string

const (
	ScanSourceQrCode       ScanSource = "qr_code"
	ScanSourceDirectLink   ScanSource = "direct_link"
	ScanSourceShareLink    ScanSource = "share_link"
	ScanSourceSearchEngine ScanSource = "search_engine"
	ScanSourceSocialMedia  ScanSource = "social_media"
	ScanSourceUnknown      ScanSource = "unknown"
)

// ParseScanSource maps the "source" query hint. Anything unrecognised is
// treated as a QR scan.
func ParseScanSource(hint string) ScanSource {
	switch hint {
	case "qr":
		return ScanSourceQrCode
	case "direct":
		return ScanSourceDirectLink
	case "share":
		return ScanSourceShareLink
	case "search":
		return ScanSourceSearchEngine
	case "social":
		return ScanSourceSocialMedia
	default:
		return ScanSourceQrCode
	}
}

// RedirectType is the outcome of a scan.
type RedirectType string

const (
	RedirectDual           RedirectType = "dual_redirect"
	RedirectDaobitarOnly   RedirectType = "daobitar_only"
	RedirectBlockchainOnly RedirectType = "blockchain_only"
	RedirectFailed         RedirectType = "failed"
)

// Label is the short name used in JSON scan responses.
func (r RedirectType) Label() string {
	switch r {
	case RedirectDual:
		return "dual"
	case RedirectDaobitarOnly:
		return "property"
	case RedirectBlockchainOnly:
		return "blockchain"
	default:
		return "failed"
	}
}

// DeviceType buckets user agents.
type DeviceType string

const (
	DeviceMobile  DeviceType = "mobile"
	DeviceDesktop DeviceType = "desktop"
	DeviceTablet  DeviceType = "tablet"
	DeviceUnknown DeviceType = "unknown"
)

type DeviceInfo struct {
	DeviceType      DeviceType `json:"deviceType"`
	Browser         string     `json:"browser,omitempty"`
	OperatingSystem string     `json:"operatingSystem,omitempty"`
	IsMobile        bool       `json:"isMobile"`
}

type GeoLocation struct {
	Country   string   `json:"country,omitempty"`
	Region    string   `json:"region,omitempty"`
	City      string   `json:"city,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// ScanEvent is an immutable record of one scan.
type ScanEvent struct {
	ID              string            `json:"id" gorm:"column:id;primaryKey;size:36"`
	PropertyID      string            `json:"propertyId" gorm:"column:property_id;index;size:64;not null"`
	QrVersion       int               `json:"qrVersion" gorm:"column:qr_version;not null"`
	ScannedAt       time.Time         `json:"scannedAt" gorm:"column:scanned_at;index;not null"`
	ScanSource      ScanSource        `json:"scanSource" gorm:"column:scan_source;size:32"`
	UserAgent       string            `json:"userAgent,omitempty" gorm:"column:user_agent"`
	IPAddress       string            `json:"ipAddress,omitempty" gorm:"column:ip_address;size:64"`
	SessionID       string            `json:"sessionId,omitempty" gorm:"column:session_id"`
	Referrer        string            `json:"referrer,omitempty" gorm:"column:referrer"`
	Geolocation     *GeoLocation      `json:"geolocation,omitempty" gorm:"column:geolocation;serializer:json"`
	Device          *DeviceInfo       `json:"deviceInfo,omitempty" gorm:"column:device_info;serializer:json"`
	RedirectSuccess bool              `json:"redirectSuccess" gorm:"column:redirect_success"`
	RedirectType    RedirectType      `json:"redirectType" gorm:"column:redirect_type;size:32"`
	ResponseTimeMs  *int64            `json:"responseTimeMs,omitempty" gorm:"column:response_time_ms"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty" gorm:"column:metadata"`
}

func (ScanEvent) TableName() string {
	return "scan_events"
}

// ScanInput carries everything needed to record a scan.
type ScanInput struct {
	// ScanID is optional, a new id is assigned when empty.
	ScanID     string
	PropertyID string
	// QrVersion of 0 means "use the version of the current QR record".
	QrVersion       int
	Source          ScanSource
	UserAgent       string
	IPAddress       string
	SessionID       string
	Referrer        string
	RedirectType    RedirectType
	RedirectSuccess bool
	ResponseTimeMs  *int64
	Metadata        map[string]string
	// ScannedAt is when the request arrived; zero means "now".
	ScannedAt time.Time
}

// FailedScanInput describes a scan that could not be served.
type FailedScanInput struct {
	ScanID      string
	PropertyID  string
	Source      ScanSource
	UserAgent   string
	IPAddress   string
	SessionID   string
	Referrer    string
	ErrorReason string
	Metadata    map[string]string
	ScannedAt   time.Time
}

// NewScanEvent builds an event from a fully resolved input. scannedAt is
// used as the event time.
func NewScanEvent(id string, in ScanInput, device *DeviceInfo, scannedAt time.Time) *ScanEvent {
	var metadata datatypes.JSONMap
	if len(in.Metadata) > 0 {
		metadata = make(datatypes.JSONMap, len(in.Metadata))
		for k, v := range in.Metadata {
			metadata[k] = v
		}
	}
	return &ScanEvent{
		ID:              id,
		PropertyID:      in.PropertyID,
		QrVersion:       in.QrVersion,
		ScannedAt:       scannedAt,
		ScanSource:      in.Source,
		UserAgent:       in.UserAgent,
		IPAddress:       in.IPAddress,
		SessionID:       in.SessionID,
		Referrer:        in.Referrer,
		Device:          device,
		RedirectSuccess: in.RedirectSuccess,
		RedirectType:    in.RedirectType,
		ResponseTimeMs:  in.ResponseTimeMs,
		Metadata:        metadata,
	}
}

// ScanEventFilter selects events for counting. Zero values are ignored.
type ScanEventFilter struct {
	PropertyID string
	Since      time.Time
	Until      time.Time
}

// ScanRedirectData is rendered on the dual landing page.
type ScanRedirectData struct {
	PropertyID     string
	PropertyName   string
	Location       string
	Action         string
	FormattedPrice string
	PrimaryImage   string
	IsVerified     bool
	CryptoAccepted bool
	PropertyURL    string
	BlockchainURL  string
	ScanID         string
}

// ScanURLs are the destinations offered for a scan.
type ScanURLs struct {
	PropertyURL     string  `json:"property_url"`
	BlockchainURL   *string `json:"blockchain_url"`
	RedirectPageURL string  `json:"redirect_page_url"`
}

// ScanResponse is the JSON form of a scan.
type ScanResponse struct {
	Success      bool     `json:"success"`
	PropertyID   string   `json:"property_id"`
	RedirectType string   `json:"redirect_type"`
	URLs         ScanURLs `json:"urls"`
	ScanID       string   `json:"scan_id"`
}
