package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/gosimple/slug"
)

const codeFallbackPrefix = "REF"

// GenerateReferralCode derives a referral code from a user's name: the first
// three letters of the slugified name, uppercased, followed by a random
// three-digit number. Names shorter than three usable characters are padded
// with a fixed prefix. Codes are short and human-shareable, so callers must
// check the result for collisions against the store and retry.
func GenerateReferralCode(name string) string {
	prefix := codePrefix(name)

	n, _ := rand.Int(rand.Reader, big.NewInt(900))
	return fmt.Sprintf("%s%03d", prefix, n.Int64()+100)
}

// codePrefix extracts an uppercased three-letter prefix from a name
func codePrefix(name string) string {
	cleaned := strings.ReplaceAll(slug.Make(name), "-", "")
	if len(cleaned) >= 3 {
		return strings.ToUpper(cleaned[:3])
	}
	return (strings.ToUpper(cleaned) + codeFallbackPrefix)[:3]
}
