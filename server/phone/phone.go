// Package phone canonicalises user entered phone numbers into an
// E.164-like format i.e. '+' followed by a country code.
package phone

import (
	"regexp"
	"strings"

	"github.com/Daskott/raksha/server/logger"
)

// DOMESTIC_COUNTRY_CODE is used for bare 10 digit numbers
const DOMESTIC_COUNTRY_CODE = "91"

var (
	logg      = logger.NewLogger()
	nonDigits = regexp.MustCompile(`\D`)
)

// Normalize maps raw to a canonical phone number. An empty result means there
// was nothing to normalize. Numbers that can't be formatted are returned as is.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	digits := nonDigits.ReplaceAllString(raw, "")

	// Already formatted
	if IsCanonical(raw) {
		return raw
	}

	switch {
	case len(digits) == 10:
		return "+" + DOMESTIC_COUNTRY_CODE + digits
	case len(digits) == 12 && strings.HasPrefix(digits, DOMESTIC_COUNTRY_CODE):
		return "+" + digits
	case len(digits) == 11 && strings.HasPrefix(digits, "1"):
		return "+" + digits
	case len(digits) > 10:
		logg.Warnf("phone: %v digits, may be malformed: %q", len(digits), Redact(raw))
		return "+" + digits
	}

	logg.Warnf("phone: unable to format %q", Redact(raw))
	return raw
}

// IsCanonical reports whether number is already in canonical form
func IsCanonical(number string) bool {
	return strings.HasPrefix(number, "+") && len(nonDigits.ReplaceAllString(number, "")) > 0
}

// Redact masks all but the last 4 characters of number for logging
func Redact(number string) string {
	const visible = 4
	if len(number) <= visible {
		return strings.Repeat("*", len(number))
	}

	return strings.Repeat("*", len(number)-visible) + number[len(number)-visible:]
}
