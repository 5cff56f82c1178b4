package attendance

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidQRCode = errors.New("invalid check-in code format")

// Check-in codes look like ACT001QR4T25X.
var qrCodePattern = regexp.MustCompile(`^ACT\d{3}QR\d{1}T\d{2}X$`)

func ValidQRCode(code string) bool {
	return qrCodePattern.MatchString(code)
}

// NormalizeQRCode trims and upper-cases a typed code.
func NormalizeQRCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
