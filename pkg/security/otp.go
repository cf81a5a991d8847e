package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
)

const (
	minOTPDigits = 4
	maxOTPDigits = 10
)

// GenerateOTP produces a numeric one-time code of the requested length using
// crypto/rand. Leading zeros are preserved.
func GenerateOTP(digits int) (string, error) {
	if digits < minOTPDigits || digits > maxOTPDigits {
		return "", fmt.Errorf("otp digits must be between %d and %d", minOTPDigits, maxOTPDigits)
	}

	var sb strings.Builder
	sb.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generate otp digit: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// VerifyOTP compares the provided code against the stored one in constant time.
func VerifyOTP(stored, provided string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(provided))) == 1
}
