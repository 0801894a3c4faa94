package domain

import (
	"strings"

	"github.com/mr-tron/base58"
)

// NormalizeAddress canonicalizes a contract address for use as a map key.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ValidAddress reports whether address looks like a Solana contract address:
// 32 to 44 characters of the base58 alphabet.
func ValidAddress(address string) bool {
	address = strings.TrimSpace(address)
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	if _, err := base58.Decode(address); err != nil {
		return false
	}
	return true
}
