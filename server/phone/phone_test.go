package phone

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{"", ""},
		{"9876543210", "+919876543210"},
		{"98765 43210", "+919876543210"},
		{"(987) 654-3210", "+919876543210"},
		{"919876543210", "+919876543210"},
		{"14165550123", "+14165550123"},
		{"1-416-555-0123", "+14165550123"},
		{"+1 416 555 0123", "+1 416 555 0123"},
		{"+91807643514", "+91807643514"},
		{"4412345678901", "+4412345678901"},
		{"12345", "12345"},
		{"call me", "call me"},
	}

	for _, tcase := range testCases {
		t.Run(fmt.Sprintf("Normalize(%q)", tcase.raw), func(t *testing.T) {
			assert.Equal(t, tcase.expected, Normalize(tcase.raw))
		})
	}
}

func TestNormalizeTenDigitsAlwaysGetsDomesticCode(t *testing.T) {
	for _, digits := range []string{"0000000000", "1234567890", "9999999999", "5550001111"} {
		assert.Equal(t, "+91"+digits, Normalize(digits))
	}
}

func TestNormalizeIsIdentityForPlusPrefixed(t *testing.T) {
	for _, raw := range []string{"+", "+1", "+abc", "+91 98765-43210", "+4412345678901"} {
		assert.Equal(t, raw, Normalize(raw))
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	raw := "098765 43210"
	first := Normalize(raw)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Normalize(raw))
	}
}

func TestIsCanonical(t *testing.T) {
	assert.True(t, IsCanonical("+919876543210"))
	assert.False(t, IsCanonical("9876543210"))
	assert.False(t, IsCanonical("+"))
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "*********3210", Redact("+919876543210"))
	assert.Equal(t, "****", Redact("1234"))
	assert.Equal(t, "**", Redact("12"))
	assert.Equal(t, "", Redact(""))
}
