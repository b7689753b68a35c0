// Package storage holds the object stores QR images are published to.
package storage

import (
	"fmt"
	"strings"
)

const (
	ContentTypePNG  = "image/png"
	ContentTypeJSON = "application/json"
)

// ValidateKey rejects empty keys, absolute keys and keys that climb out of
// the bucket prefix.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("object key cannot be empty")
	}
	if strings.HasPrefix(key, "/") {
		return fmt.Errorf("object key %q must be relative", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return fmt.Errorf("object key %q must not contain '..'", key)
		}
	}
	return nil
}
