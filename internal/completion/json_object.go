package completion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	errorMessageNoJSONObject        = "completion: reply contains no JSON object"
	errorMessageMalformedJSONObject = "completion: reply JSON object is malformed"

	openingBrace = "{"
	closingBrace = "}"
)

var (
	// ErrNoJSONObject indicates the reply text carried no brace-delimited object.
	ErrNoJSONObject = errors.New(errorMessageNoJSONObject)
	// ErrMalformedJSONObject indicates the brace-delimited substring failed to parse.
	ErrMalformedJSONObject = errors.New(errorMessageMalformedJSONObject)
)

// DecodeFirstJSONObject isolates the brace-matching fallback used to pull a
// JSON object out of a free-text completion reply: the greedy span from the
// first opening brace to the last closing brace is decoded into target.
// Callers depend only on this function so the strategy can later be replaced
// by a strict structured-output contract.
func DecodeFirstJSONObject(replyText string, target any) error {
	startIndex := strings.Index(replyText, openingBrace)
	endIndex := strings.LastIndex(replyText, closingBrace)
	if startIndex == -1 || endIndex <= startIndex {
		return ErrNoJSONObject
	}

	if unmarshalErr := json.Unmarshal([]byte(replyText[startIndex:endIndex+1]), target); unmarshalErr != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSONObject, unmarshalErr)
	}

	return nil
}
