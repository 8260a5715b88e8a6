package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	resetCodeMin   = 100000
	resetCodeRange = 900000 // 100000..999999 inclusive
)

// NewResetCode returns a six-digit code drawn uniformly from [100000, 999999].
func NewResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(resetCodeRange))
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+resetCodeMin), nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
