package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "so11111111111111111111111111111111111111112",
		NormalizeAddress("  So11111111111111111111111111111111111111112 "))
}

func TestValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"wrapped sol mint", "So11111111111111111111111111111111111111112", true},
		{"surrounding whitespace", " So11111111111111111111111111111111111111112 ", true},
		{"too short", "abc", false},
		{"too long", "So111111111111111111111111111111111111111121111111111", false},
		{"zero not in base58 alphabet", "0o11111111111111111111111111111111111111112", false},
		{"empty", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidAddress(tc.address))
		})
	}
}
