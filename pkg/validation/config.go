package validation

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// ValidateBaseURL requires an absolute http(s) URL without a trailing slash.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	if strings.HasSuffix(raw, "/") {
		return fmt.Errorf("url %q must not end with a slash", raw)
	}
	return nil
}

// ValidateHexColor accepts colours of the form #RRGGBB.
func ValidateHexColor(c string) error {
	if len(c) != 7 || c[0] != '#' {
		return fmt.Errorf("invalid colour %q: expected #RRGGBB", c)
	}
	if _, err := hex.DecodeString(c[1:]); err != nil {
		return fmt.Errorf("invalid colour %q: %w", c, err)
	}
	return nil
}

// ParseHexColor returns the red, green and blue components of a #RRGGBB colour.
func ParseHexColor(c string) (r, g, b uint8, err error) {
	if err := ValidateHexColor(c); err != nil {
		return 0, 0, 0, err
	}
	raw, _ := hex.DecodeString(c[1:])
	return raw[0], raw[1], raw[2], nil
}
