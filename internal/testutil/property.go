package testutil

import (
	"time"

	"github.com/WankioM/property-qr/internal/models"
)

// NewProperty returns an eligible listing without an on-chain id.
func NewProperty(id string) *models.Property {
	verified := true
	removed := false
	return &models.Property{
		ID:           id,
		PropertyName: "Garden Villa " + id,
		PropertyType: "villa",
		Location:     "Nairobi",
		Action:       "sale",
		Price:        50000,
		Images:       []string{"https://img.test/" + id + "/1.jpg", "https://img.test/" + id + "/2.jpg"},
		IsVerified:   &verified,
		Removed:      &removed,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NewOnchainProperty returns an eligible listing minted with the given token id.
func NewOnchainProperty(id, onchainID string) *models.Property {
	p := NewProperty(id)
	p.OnchainID = &onchainID
	p.CryptoAccepted = true
	return p
}
