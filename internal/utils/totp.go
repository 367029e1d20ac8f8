package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"

	"github.com/pquerna/otp/totp"
)

// GenerateOTPSecret generates a new TOTP secret
func GenerateOTPSecret() string {
	secretBytes := make([]byte, 20)
	rand.Read(secretBytes)

	// base32 is the standard encoding for TOTP secrets
	return base32.StdEncoding.EncodeToString(secretBytes)
}

// ValidateTOTP validates a TOTP code against a secret
func ValidateTOTP(secret string, code string) bool {
	return totp.Validate(code, secret)
}

// GenerateOTPQRCode generates an otpauth URL for TOTP setup
func GenerateOTPQRCode(secret string, accountName string, issuer string) string {
	accountName = url.QueryEscape(accountName)
	issuer = url.QueryEscape(issuer)
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		issuer, accountName, secret, issuer)
}
