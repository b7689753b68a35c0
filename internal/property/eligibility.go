package property

import "github.com/WankioM/property-qr/internal/models"

const (
	ReasonRemoved      = "Property has been removed"
	ReasonNoImages     = "Property has no images"
	ReasonInvalidPrice = "Property has invalid price"
	ReasonUnknown      = "Unknown reason"
)

// IsEligible reports whether a listing may carry a QR code: it must not be
// removed, must have at least one image and a positive price.
func IsEligible(info *models.PropertyQrInfo) bool {
	return !info.IsRemoved() && len(info.Images) > 0 && info.Price > 0
}

// IneligibilityReason returns the first failed condition, checked in the
// order removed, images, price. Eligible listings yield ReasonUnknown.
func IneligibilityReason(info *models.PropertyQrInfo) string {
	switch {
	case info.IsRemoved():
		return ReasonRemoved
	case len(info.Images) == 0:
		return ReasonNoImages
	case info.Price <= 0:
		return ReasonInvalidPrice
	default:
		return ReasonUnknown
	}
}
