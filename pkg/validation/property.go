package validation

import (
	"fmt"
	"strings"
)

// MaxPropertyIDLength bounds listing identifiers.
const MaxPropertyIDLength = 64

// ValidatePropertyID checks a listing identifier: non-empty, at most 64
// characters of letters, digits, '-' and '_'.
func ValidatePropertyID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("property id cannot be empty")
	}

	if len(id) > MaxPropertyIDLength {
		return fmt.Errorf("invalid property id length: expected at most %d characters, got %d", MaxPropertyIDLength, len(id))
	}

	for i, r := range id {
		if !isIDRune(r) {
			return fmt.Errorf("invalid character %q at position %d", r, i)
		}
	}

	return nil
}

// NormalizePropertyID trims surrounding whitespace.
func NormalizePropertyID(id string) string {
	return strings.TrimSpace(id)
}

// ValidateAndNormalizePropertyID normalizes an id and validates the result.
func ValidateAndNormalizePropertyID(id string) (string, error) {
	id = NormalizePropertyID(id)
	if err := ValidatePropertyID(id); err != nil {
		return "", err
	}
	return id, nil
}

func isIDRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
