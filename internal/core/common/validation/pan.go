package validation

import (
	"regexp"
	"strings"
)

// PANLength is the fixed length of a PAN (tax identifier).
const PANLength = 10

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// NormalizePAN trims surrounding whitespace and uppercases the value.
func NormalizePAN(pan string) string {
	return strings.ToUpper(strings.TrimSpace(pan))
}

// IsValidPAN reports whether pan, once normalized, is five letters,
// four digits and a trailing letter.
func IsValidPAN(pan string) bool {
	normalized := NormalizePAN(pan)
	if len(normalized) != PANLength {
		return false
	}
	return panPattern.MatchString(normalized)
}

// MaskPAN hides all but the last four characters of a valid PAN.
// Anything that is not a PAN is returned unchanged.
func MaskPAN(value string) string {
	if !IsValidPAN(value) {
		return value
	}
	normalized := NormalizePAN(value)
	return strings.Repeat("*", PANLength-4) + normalized[PANLength-4:]
}
