package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewloop/internal/dispatch"
)

func TestNewTrackingTokenIsAlphanumericAndFixedLength(t *testing.T) {
	for attempt := 0; attempt < 50; attempt++ {
		trackingToken, err := dispatch.NewTrackingToken()
		require.NoError(t, err)
		require.Len(t, trackingToken, 32)
		for _, character := range trackingToken {
			isLower := character >= 'a' && character <= 'z'
			isUpper := character >= 'A' && character <= 'Z'
			isDigit := character >= '0' && character <= '9'
			require.True(t, isLower || isUpper || isDigit, "unexpected character %q in token %s", character, trackingToken)
		}
	}
}

func TestNewTrackingTokenVaries(t *testing.T) {
	seenTokens := make(map[string]bool)
	for attempt := 0; attempt < 20; attempt++ {
		trackingToken, err := dispatch.NewTrackingToken()
		require.NoError(t, err)
		require.False(t, seenTokens[trackingToken])
		seenTokens[trackingToken] = true
	}
}
