package utils

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]{3}\d{3}$`)

func TestGenerateReferralCodeFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := GenerateReferralCode("Alice Smith")
		assert.Regexp(t, referralCodePattern, code)
		assert.True(t, strings.HasPrefix(code, "ALI"), "got %s", code)
	}
}

func TestGenerateReferralCodePrefixes(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{"Alice", "ALI"},
		{"bob jones", "BOB"},
		{"Al", "ALR"},
		{"X", "XRE"},
		{"", "REF"},
		{"  !!  ", "REF"},
	}

	for _, tt := range tests {
		code := GenerateReferralCode(tt.name)
		assert.Equal(t, tt.prefix, code[:3], "name %q", tt.name)
		assert.Regexp(t, referralCodePattern, code)
	}
}

func TestGenerateReferralCodeSuffixRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateReferralCode("Alice")
		suffix := code[3:]
		assert.Len(t, suffix, 3)
		assert.GreaterOrEqual(t, suffix, "100")
		assert.LessOrEqual(t, suffix, "999")
	}
}
