package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePropertyID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"object id", "65f1c2a9e4b0a1b2c3d4e5f6", false},
		{"dashes and underscores", "prop_1-a", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 65), true},
		{"max length", strings.Repeat("a", 64), false},
		{"path traversal", "../etc", true},
		{"space inside", "prop 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePropertyID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAndNormalizePropertyID(t *testing.T) {
	id, err := ValidateAndNormalizePropertyID("  p1 ")
	assert.NoError(t, err)
	assert.Equal(t, "p1", id)
}

func TestValidateBaseURL(t *testing.T) {
	assert.NoError(t, ValidateBaseURL("https://qr-service.daobitat.xyz"))
	assert.NoError(t, ValidateBaseURL("http://localhost:3000"))
	assert.Error(t, ValidateBaseURL(""))
	assert.Error(t, ValidateBaseURL("ftp://example.com"))
	assert.Error(t, ValidateBaseURL("https://example.com/"))
	assert.Error(t, ValidateBaseURL("/relative"))
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#FF8000")
	assert.NoError(t, err)
	assert.Equal(t, []uint8{255, 128, 0}, []uint8{r, g, b})

	_, _, _, err = ParseHexColor("FF8000")
	assert.Error(t, err)
	_, _, _, err = ParseHexColor("#GG0000")
	assert.Error(t, err)
}
