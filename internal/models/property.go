package models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Property is a real-estate listing. Listings are owned by the property domain;
// this service only reads them and bumps the click counter.
type Property struct {
	// ID is the listing identifier.
	ID string `json:"id" gorm:"column:id;primaryKey;size:64"`
	// PropertyName is the display name of the listing.
	PropertyName string `json:"propertyName" gorm:"column:property_name;not null"`
	// PropertyType is the listing category (apartment, land, etc.)
	PropertyType string `json:"propertyType" gorm:"column:property_type"`
	// Location is a free-form address.
	Location string `json:"location" gorm:"column:location"`
	// Action is the listing action (rent, sale, etc.)
	Action string `json:"action" gorm:"column:action"`
	// Price is the asking price in KES.
	Price int64 `json:"price" gorm:"column:price;not null;default:0"`
	// OnchainID is the token id of the listing on the chain, if it was minted.
	OnchainID *string `json:"onchainId,omitempty" gorm:"column:onchain_id"`
	// CryptoAccepted marks listings that accept crypto payments.
	CryptoAccepted bool `json:"cryptoAccepted" gorm:"column:crypto_accepted;not null;default:false"`
	// Images are the listing image URLs, the first one is the primary image.
	Images pq.StringArray `json:"images" gorm:"column:images;type:text[]"`
	// IsVerified marks listings checked by an operator.
	IsVerified *bool `json:"isVerified,omitempty" gorm:"column:is_verified"`
	// Removed marks listings taken down by the owner.
	Removed *bool `json:"removed,omitempty" gorm:"column:removed"`
	// Owner is the owner account reference.
	Owner string `json:"owner,omitempty" gorm:"column:owner;index"`
	// Clicks counts listing visits coming through QR scans.
	Clicks int64 `json:"clicks" gorm:"column:clicks;not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

// PropertyClick is one entry of a listing's click history.
type PropertyClick struct {
	ID         int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	PropertyID string    `json:"propertyId" gorm:"column:property_id;index;not null"`
	ClickedAt  time.Time `json:"clickedAt" gorm:"column:clicked_at;not null"`
}

func (PropertyClick) TableName() string {
	return "property_clicks"
}

// PropertyQrInfo is the read-only projection of a listing used for QR issuance
// and scan redirects.
type PropertyQrInfo struct {
	ID             string   `json:"id"`
	PropertyName   string   `json:"propertyName"`
	Location       string   `json:"location"`
	Action         string   `json:"action"`
	Price          int64    `json:"price"`
	OnchainID      *string  `json:"onchainId,omitempty"`
	CryptoAccepted bool     `json:"cryptoAccepted"`
	Images         []string `json:"images"`
	IsVerified     *bool    `json:"isVerified,omitempty"`
	Removed        *bool    `json:"removed,omitempty"`
}

// QrInfo projects the listing into a PropertyQrInfo.
func (p *Property) QrInfo() *PropertyQrInfo {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return &PropertyQrInfo{
		ID:             p.ID,
		PropertyName:   p.PropertyName,
		Location:       p.Location,
		Action:         p.Action,
		Price:          p.Price,
		OnchainID:      p.OnchainID,
		CryptoAccepted: p.CryptoAccepted,
		Images:         images,
		IsVerified:     p.IsVerified,
		Removed:        p.Removed,
	}
}

// PrimaryImage returns the first image or an empty string.
func (p *PropertyQrInfo) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasOnchainID reports whether the listing has a non-empty on-chain id.
func (p *PropertyQrInfo) HasOnchainID() bool {
	return p.OnchainID != nil && *p.OnchainID != ""
}

func (p *PropertyQrInfo) Verified() bool {
	return p.IsVerified != nil && *p.IsVerified
}

func (p *PropertyQrInfo) IsRemoved() bool {
	return p.Removed != nil && *p.Removed
}

// FormattedPrice renders the price the way listing pages show it.
func (p *PropertyQrInfo) FormattedPrice() string {
	price := fmt.Sprintf("KES %d", p.Price)
	if p.CryptoAccepted {
		price += " (Crypto Accepted)"
	}
	return price
}

// PropertyStats summarizes the listing catalogue.
type PropertyStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	Verified   int64 `json:"verified"`
	WithImages int64 `json:"withImages"`
	Eligible   int64 `json:"eligible"`
}
