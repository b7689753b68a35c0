package property

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/WankioM/property-qr/internal/models"
)

func TestEligibility(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		name     string
		info     models.PropertyQrInfo
		eligible bool
		reason   string
	}{
		{
			name:     "eligible",
			info:     models.PropertyQrInfo{Images: []string{"a.jpg"}, Price: 1},
			eligible: true,
			reason:   ReasonUnknown,
		},
		{
			name:     "removed flag false counts as present",
			info:     models.PropertyQrInfo{Images: []string{"a.jpg"}, Price: 1, Removed: &no},
			eligible: true,
			reason:   ReasonUnknown,
		},
		{
			name:   "removed",
			info:   models.PropertyQrInfo{Images: []string{"a.jpg"}, Price: 1, Removed: &yes},
			reason: ReasonRemoved,
		},
		{
			name:   "no images",
			info:   models.PropertyQrInfo{Price: 1},
			reason: ReasonNoImages,
		},
		{
			name:   "zero price",
			info:   models.PropertyQrInfo{Images: []string{"a.jpg"}},
			reason: ReasonInvalidPrice,
		},
		{
			name:   "negative price",
			info:   models.PropertyQrInfo{Images: []string{"a.jpg"}, Price: -5},
			reason: ReasonInvalidPrice,
		},
		{
			name:   "removed wins over missing images and price",
			info:   models.PropertyQrInfo{Removed: &yes},
			reason: ReasonRemoved,
		},
		{
			name:   "images checked before price",
			info:   models.PropertyQrInfo{},
			reason: ReasonNoImages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eligible, IsEligible(&tt.info))
			assert.Equal(t, tt.reason, IneligibilityReason(&tt.info))
		})
	}
}
