package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/models"
)

func landingData() *models.ScanRedirectData {
	return &models.ScanRedirectData{
		PropertyID:     "p1",
		PropertyName:   "Garden <Villa>",
		Location:       "Nairobi",
		Action:         "sale",
		FormattedPrice: "KES 50000 (Crypto Accepted)",
		PrimaryImage:   "https://img.test/p1/1.jpg",
		IsVerified:     true,
		CryptoAccepted: true,
		PropertyURL:    "https://daobitat.test/property/p1",
		BlockchainURL:  "https://explorer.test/token/0xabc",
		ScanID:         "scan-42",
	}
}

func TestRenderLanding(t *testing.T) {
	page, err := RenderLanding(landingData())
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Garden &lt;Villa&gt;")
	assert.NotContains(t, html, "Garden <Villa>")
	assert.Contains(t, html, "KES 50000")
	assert.Contains(t, html, `href="https://daobitat.test/property/p1"`)
	assert.Contains(t, html, `href="https://explorer.test/token/0xabc"`)
	assert.Contains(t, html, "View on Base Explorer")
	assert.Contains(t, html, "Verified")
	assert.Contains(t, html, `<span class="crypto-badge">`)
	assert.Contains(t, html, "Scan ID: scan-42")
	assert.Contains(t, html, "setTimeout")
	assert.Contains(t, html, "10000")
}

func TestRenderLandingOptionalSections(t *testing.T) {
	data := landingData()
	data.BlockchainURL = ""
	data.PrimaryImage = ""
	data.Location = ""
	data.IsVerified = false
	data.CryptoAccepted = false

	page, err := RenderLanding(data)
	require.NoError(t, err)
	html := string(page)

	assert.NotContains(t, html, "View on Base Explorer")
	assert.NotContains(t, html, `class="property-image"`)
	assert.Contains(t, html, "property-image-placeholder")
	assert.Contains(t, html, "Location not specified")
	assert.NotContains(t, html, `<span class="verified-badge">`)
	assert.NotContains(t, html, `<span class="crypto-badge">`)
}

func TestRenderError(t *testing.T) {
	page, err := RenderError(MessagePropertyNotFound, "p<1>")
	require.NoError(t, err)
	html := string(page)

	assert.Contains(t, html, "<h1>Property not found</h1>")
	assert.Contains(t, html, "Property ID: p&lt;1&gt;")
	assert.Contains(t, html, `href="https://daobitat.xyz"`)
}
