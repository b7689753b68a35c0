package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// QrPayloadType tags every payload encoded into a QR image.
	QrPayloadType = "daobitat_property"
	// QrPayloadVersion is the payload schema version.
	QrPayloadVersion = "1.0"

	qrImagePrefix    = "qr-images/"
	qrMetadataPrefix = "metadata/"
)

type QrStatus string

const (
	QrStatusGenerated   QrStatus = "generated"
	QrStatusRegenerated QrStatus = "regenerated"
	QrStatusFailed      QrStatus = "failed"
	QrStatusExists      QrStatus = "exists"
)

type QrGenerationReason string

const (
	ReasonNewProperty        QrGenerationReason = "new_property"
	ReasonPropertyUpdated    QrGenerationReason = "property_updated"
	ReasonManualRegeneration QrGenerationReason = "manual_regeneration"
	ReasonBatchGeneration    QrGenerationReason = "batch_generation"
	ReasonExpiredQr          QrGenerationReason = "expired_qr"
)

// ParseQrGenerationReason maps a textual reason, unknown values yield ok=false.
func ParseQrGenerationReason(s string) (QrGenerationReason, bool) {
	switch r := QrGenerationReason(s); r {
	case ReasonNewProperty, ReasonPropertyUpdated, ReasonManualRegeneration,
		ReasonBatchGeneration, ReasonExpiredQr:
		return r, true
	}
	return "", false
}

// QrCodeData is the payload encoded into the QR image. Field order is part of
// the wire format.
type QrCodeData struct {
	Type       string `json:"type"`
	PropertyID string `json:"propertyId"`
	ScanURL    string `json:"scanUrl"`
	Version    string `json:"version"`
	Timestamp  int64  `json:"timestamp"`
}

// NewQrCodeData builds the payload pointing at {baseURL}/scan/{propertyID}.
func NewQrCodeData(propertyID, baseURL string, now time.Time) QrCodeData {
	return QrCodeData{
		Type:       QrPayloadType,
		PropertyID: propertyID,
		ScanURL:    ScanURL(baseURL, propertyID),
		Version:    QrPayloadVersion,
		Timestamp:  now.Unix(),
	}
}

// ScanURL is the public scan endpoint for a listing.
func ScanURL(baseURL, propertyID string) string {
	return fmt.Sprintf("%s/scan/%s", baseURL, propertyID)
}

func (d QrCodeData) ToJSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal qr payload: %w", err)
	}
	return string(b), nil
}

func ParseQrCodeData(s string) (QrCodeData, error) {
	var d QrCodeData
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return QrCodeData{}, fmt.Errorf("failed to parse qr payload: %w", err)
	}
	return d, nil
}

// IsValid accepts any non-empty payload version.
func (d QrCodeData) IsValid() bool {
	return d.Type == QrPayloadType && d.PropertyID != "" && d.ScanURL != "" && d.Version != ""
}

// HashPattern returns the hex SHA-256 of an encoded payload.
func HashPattern(pattern string) string {
	sum := sha256.Sum256([]byte(pattern))
	return hex.EncodeToString(sum[:])
}

// QrMetadata is the listing snapshot taken when a QR image is produced.
type QrMetadata struct {
	PropertyName     string             `json:"propertyName" gorm:"column:property_name"`
	Location         string             `json:"location" gorm:"column:location"`
	Action           string             `json:"action" gorm:"column:action"`
	Price            int64              `json:"price" gorm:"column:price"`
	OnchainID        *string            `json:"onchainId,omitempty" gorm:"column:onchain_id"`
	CryptoAccepted   bool               `json:"cryptoAccepted" gorm:"column:crypto_accepted"`
	PrimaryImage     string             `json:"primaryImage,omitempty" gorm:"column:primary_image"`
	IsVerified       bool               `json:"isVerified" gorm:"column:is_verified"`
	GeneratedBy      string             `json:"generatedBy" gorm:"column:generated_by"`
	GenerationReason QrGenerationReason `json:"generationReason" gorm:"column:generation_reason"`
}

// NewQrMetadata snapshots the display fields of a listing.
func NewQrMetadata(info *PropertyQrInfo, generatedBy string, reason QrGenerationReason) QrMetadata {
	return QrMetadata{
		PropertyName:     info.PropertyName,
		Location:         info.Location,
		Action:           info.Action,
		Price:            info.Price,
		OnchainID:        info.OnchainID,
		CryptoAccepted:   info.CryptoAccepted,
		PrimaryImage:     info.PrimaryImage(),
		IsVerified:       info.Verified(),
		GeneratedBy:      generatedBy,
		GenerationReason: reason,
	}
}

// QrCodeMetadata is the persisted QR record. There is at most one row per
// property id.
type QrCodeMetadata struct {
	// ID is the record identifier.
	ID string `json:"id" gorm:"column:id;primaryKey;size:36"`
	// PropertyID is the listing the QR code points at.
	PropertyID string `json:"propertyId" gorm:"column:property_id;uniqueIndex;size:64;not null"`
	// QrCodeURL is the public URL of the stored image.
	QrCodeURL string `json:"qrCodeUrl" gorm:"column:qr_code_url;not null"`
	// QrCodePattern is the exact payload JSON encoded into the image.
	QrCodePattern string `json:"qrCodePattern" gorm:"column:qr_code_pattern;type:text;not null"`
	// QrCodeHash is the hex SHA-256 of QrCodePattern.
	QrCodeHash string `json:"qrCodeHash" gorm:"column:qr_code_hash;size:64;not null"`
	// GeneratedAt is set when the record is created and never changes.
	GeneratedAt time.Time `json:"generatedAt" gorm:"column:generated_at;index;not null"`
	// LastUpdated is bumped by every mutation.
	LastUpdated time.Time `json:"lastUpdated" gorm:"column:last_updated;not null"`
	// ScanCount is kept for compatibility, scans are counted by analytics.
	ScanCount int64 `json:"scanCount" gorm:"column:scan_count;not null;default:0"`
	// LastScanned is the time of the most recent scan, if any.
	LastScanned *time.Time `json:"lastScanned,omitempty" gorm:"column:last_scanned"`
	// IsActive is false once the record has been deactivated.
	IsActive bool `json:"isActive" gorm:"column:is_active;index;not null"`
	// QrVersion starts at 1 and grows by one on every regeneration.
	QrVersion int `json:"qrVersion" gorm:"column:qr_version;not null"`
	// Metadata is the listing snapshot taken at generation time.
	Metadata QrMetadata `json:"metadata" gorm:"embedded;embeddedPrefix:meta_"`
}

func (QrCodeMetadata) TableName() string {
	return "qr_code_metadata"
}

// NewQrCodeMetadata creates an active version 1 record.
func NewQrCodeMetadata(id, propertyID, pattern, url string, metadata QrMetadata, now time.Time) *QrCodeMetadata {
	return &QrCodeMetadata{
		ID:            id,
		PropertyID:    propertyID,
		QrCodeURL:     url,
		QrCodePattern: pattern,
		QrCodeHash:    HashPattern(pattern),
		GeneratedAt:   now,
		LastUpdated:   now,
		IsActive:      true,
		QrVersion:     1,
		Metadata:      metadata,
	}
}

// Regenerate supersedes the stored image in place.
func (q *QrCodeMetadata) Regenerate(pattern, url string, metadata QrMetadata, now time.Time) {
	q.QrCodePattern = pattern
	q.QrCodeURL = url
	q.QrCodeHash = HashPattern(pattern)
	q.Metadata = metadata
	q.QrVersion++
	q.IsActive = true
	q.LastUpdated = now
}

func (q *QrCodeMetadata) Deactivate(now time.Time) {
	q.IsActive = false
	q.LastUpdated = now
}

func (q *QrCodeMetadata) RecordScan(now time.Time) {
	q.ScanCount++
	q.LastScanned = &now
	q.LastUpdated = now
}

// IsExpired reports whether the record was generated more than expiryDays ago.
func (q *QrCodeMetadata) IsExpired(expiryDays int, now time.Time) bool {
	return q.GeneratedAt.Before(now.AddDate(0, 0, -expiryDays))
}

func (q *QrCodeMetadata) S3Key() string {
	return QrImageKey(q.PropertyID)
}

func (q *QrCodeMetadata) MetadataS3Key() string {
	return QrMetadataKey(q.PropertyID)
}

func QrImageKey(propertyID string) string {
	return qrImagePrefix + propertyID + ".png"
}

func QrMetadataKey(propertyID string) string {
	return qrMetadataPrefix + propertyID + ".json"
}

// QrGenerationSettings controls image rendering.
type QrGenerationSettings struct {
	Size            int    `json:"size" yaml:"size"`
	ErrorCorrection string `json:"errorCorrection" yaml:"error_correction"`
	IncludeLogo     bool   `json:"includeLogo" yaml:"include_logo"`
	LogoURL         string `json:"logoUrl,omitempty" yaml:"logo_url"`
	BackgroundColor string `json:"backgroundColor" yaml:"background_color"`
	ForegroundColor string `json:"foregroundColor" yaml:"foreground_color"`
	Format          string `json:"format" yaml:"format"`
}

func DefaultQrGenerationSettings() QrGenerationSettings {
	return QrGenerationSettings{
		Size:            256,
		ErrorCorrection: "medium",
		IncludeLogo:     true,
		LogoURL:         "https://daobitat.xyz/logo.png",
		BackgroundColor: "#FFFFFF",
		ForegroundColor: "#000000",
		Format:          "png",
	}
}

// QrListFilter narrows QR record listings.
type QrListFilter struct {
	Limit      int
	Skip       int
	PropertyID string
	ActiveOnly bool
}

// QrCodeResponse is returned by generation operations.
type QrCodeResponse struct {
	PropertyID  string     `json:"propertyId"`
	QrCodeURL   string     `json:"qrCodeUrl"`
	ScanURL     string     `json:"scanUrl"`
	GeneratedAt time.Time  `json:"generatedAt"`
	QrVersion   int        `json:"qrVersion"`
	Metadata    QrMetadata `json:"metadata"`
	Status      QrStatus   `json:"status"`
}

// NewQrCodeResponse describes a stored record.
func NewQrCodeResponse(q *QrCodeMetadata, baseURL string, status QrStatus) *QrCodeResponse {
	return &QrCodeResponse{
		PropertyID:  q.PropertyID,
		QrCodeURL:   q.QrCodeURL,
		ScanURL:     ScanURL(baseURL, q.PropertyID),
		GeneratedAt: q.GeneratedAt,
		QrVersion:   q.QrVersion,
		Metadata:    q.Metadata,
		Status:      status,
	}
}

// QrGenerationError attributes a batch failure to one property id.
type QrGenerationError struct {
	PropertyID string `json:"propertyId"`
	Error      string `json:"error"`
	ErrorCode  string `json:"errorCode"`
}

type BatchQrCodeResponse struct {
	Successful      []*QrCodeResponse    `json:"successful"`
	Failed          []*QrGenerationError `json:"failed"`
	TotalRequested  int                  `json:"totalRequested"`
	TotalSuccessful int                  `json:"totalSuccessful"`
	TotalFailed     int                  `json:"totalFailed"`
}

// GenerateQrRequest is the body of a single generation request.
type GenerateQrRequest struct {
	PropertyID      string              `json:"propertyId"`
	ForceRegenerate *bool               `json:"forceRegenerate,omitempty"`
	Reason          *QrGenerationReason `json:"reason,omitempty"`
}

// BatchGenerateQrRequest is the body of a batch generation request.
type BatchGenerateQrRequest struct {
	PropertyIDs     []string            `json:"propertyIds"`
	ForceRegenerate *bool               `json:"forceRegenerate,omitempty"`
	Reason          *QrGenerationReason `json:"reason,omitempty"`
}
