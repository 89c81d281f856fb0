package dispatch

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	trackingTokenLength  = 32
	tokenRandomByteCount = 24

	errorMessageGenerateToken = "dispatch: generate tracking token"
)

// NewTrackingToken returns a 32-character alphanumeric tracking token.
// Uniqueness is assumed, not verified.
func NewTrackingToken() (string, error) {
	var tokenBuilder strings.Builder

	for tokenBuilder.Len() < trackingTokenLength {
		randomBytes := make([]byte, tokenRandomByteCount)
		if _, readErr := rand.Read(randomBytes); readErr != nil {
			return "", fmt.Errorf("%s: %w", errorMessageGenerateToken, readErr)
		}

		for _, encodedCharacter := range base64.RawURLEncoding.EncodeToString(randomBytes) {
			if !isAlphanumeric(encodedCharacter) {
				continue
			}
			tokenBuilder.WriteRune(encodedCharacter)
			if tokenBuilder.Len() == trackingTokenLength {
				break
			}
		}
	}

	return tokenBuilder.String(), nil
}

func isAlphanumeric(character rune) bool {
	switch {
	case character >= 'a' && character <= 'z':
		return true
	case character >= 'A' && character <= 'Z':
		return true
	case character >= '0' && character <= '9':
		return true
	}
	return false
}
