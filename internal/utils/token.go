package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateSecureToken generates a secure random token of specified length
func GenerateSecureToken(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)[:length]
}
