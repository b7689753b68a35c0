package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/models"
)

const payload = `{"type":"daobitat_property","propertyId":"p1","scanUrl":"https://qr.test/scan/p1","version":"1.0","timestamp":1700000000}`

func TestEncodeProducesPNGOfRequestedSize(t *testing.T) {
	settings := models.DefaultQrGenerationSettings()
	settings.Size = 512

	data, err := NewEncoder().Encode(payload, settings)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestEncodeUsesConfiguredColours(t *testing.T) {
	settings := models.DefaultQrGenerationSettings()
	settings.BackgroundColor = "#FF0000"

	data, err := NewEncoder().Encode(payload, settings)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0, 0}, []uint32{r, g, b})
}

func TestEncodeRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		mutate  func(s *models.QrGenerationSettings)
	}{
		{"empty payload", "", func(s *models.QrGenerationSettings) {}},
		{"too small", payload, func(s *models.QrGenerationSettings) { s.Size = 10 }},
		{"too large", payload, func(s *models.QrGenerationSettings) { s.Size = 4096 }},
		{"bad level", payload, func(s *models.QrGenerationSettings) { s.ErrorCorrection = "ultra" }},
		{"bad colour", payload, func(s *models.QrGenerationSettings) { s.ForegroundColor = "black" }},
		{"bad format", payload, func(s *models.QrGenerationSettings) { s.Format = "svg" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := models.DefaultQrGenerationSettings()
			tt.mutate(&settings)
			_, err := NewEncoder().Encode(tt.payload, settings)
			assert.Error(t, err)
		})
	}
}

func TestRecoveryLevel(t *testing.T) {
	tests := map[string]qrcode.RecoveryLevel{
		"low":      qrcode.Low,
		"":         qrcode.Medium,
		"MEDIUM":   qrcode.Medium,
		"quartile": qrcode.High,
		"high":     qrcode.Highest,
	}
	for in, want := range tests {
		got, err := RecoveryLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
