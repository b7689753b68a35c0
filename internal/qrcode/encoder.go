// Package qrcode renders QR payloads into PNG images.
package qrcode

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/validation"
)

const (
	MinSize = 64
	MaxSize = 2048
)

// Encoder implements models.ImageEncoder.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode renders payload as a square PNG of settings.Size pixels.
func (e *Encoder) Encode(payload string, settings models.QrGenerationSettings) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("payload cannot be empty")
	}
	if settings.Size < MinSize || settings.Size > MaxSize {
		return nil, fmt.Errorf("invalid QR code size: %d, expected %d to %d", settings.Size, MinSize, MaxSize)
	}
	if settings.Format != "" && settings.Format != "png" {
		return nil, fmt.Errorf("unsupported format: %s", settings.Format)
	}

	level, err := RecoveryLevel(settings.ErrorCorrection)
	if err != nil {
		return nil, err
	}

	qrCode, err := qrcode.New(payload, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	if settings.BackgroundColor != "" {
		if qrCode.BackgroundColor, err = parseColor(settings.BackgroundColor); err != nil {
			return nil, err
		}
	}
	if settings.ForegroundColor != "" {
		if qrCode.ForegroundColor, err = parseColor(settings.ForegroundColor); err != nil {
			return nil, err
		}
	}

	pngBytes, err := qrCode.PNG(settings.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code PNG: %w", err)
	}
	return pngBytes, nil
}

// RecoveryLevel maps a textual error correction level. An empty level is medium.
func RecoveryLevel(level string) (qrcode.RecoveryLevel, error) {
	switch strings.ToLower(level) {
	case "low":
		return qrcode.Low, nil
	case "", "medium":
		return qrcode.Medium, nil
	case "quartile":
		return qrcode.High, nil
	case "high":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("unknown error correction level: %s", level)
	}
}

func parseColor(hex string) (color.Color, error) {
	r, g, b, err := validation.ParseHexColor(hex)
	if err != nil {
		return nil, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
