package platform

import (
	"fmt"
	"regexp"
)

// Fixed keys for the supported review platforms. The set is part of the
// external contract: analysis results always carry exactly these five keys.
const (
	KeyTrustpilot = "trustpilot"
	KeyCapterra   = "capterra"
	KeyGoogle     = "google"
	KeyG2         = "g2"
	KeyYelp       = "yelp"
)

// Definition couples a platform's profile-URL recognizer with the URL
// templates derived from it. The profile format rebuilds a canonical profile
// page from the captured identifiers; the review format builds the
// "write a review" deep link from the first captured identifier.
type Definition struct {
	Key               string
	profileExpression *regexp.Regexp
	profileURLFormat  string
	reviewURLFormat   string
}

var definitions = []Definition{
	{
		Key:               KeyTrustpilot,
		profileExpression: regexp.MustCompile(`(?i)trustpilot\.com/review/([^/\s]+)`),
		profileURLFormat:  "https://www.trustpilot.com/review/%s",
		reviewURLFormat:   "https://www.trustpilot.com/evaluate/%s",
	},
	{
		Key:               KeyCapterra,
		profileExpression: regexp.MustCompile(`(?i)capterra\.com/p/(\d+)/([^/\s]+)`),
		profileURLFormat:  "https://www.capterra.com/p/%s/%s",
		reviewURLFormat:   "https://www.capterra.com/reviews/new/%s",
	},
	{
		Key:               KeyGoogle,
		profileExpression: regexp.MustCompile(`(?i)business\.google\.com/([^/\s]+)`),
		profileURLFormat:  "https://business.google.com/%s",
		reviewURLFormat:   "https://g.page/r/%s",
	},
	{
		Key:               KeyG2,
		profileExpression: regexp.MustCompile(`(?i)g2\.com/products/([^/\s]+)`),
		profileURLFormat:  "https://www.g2.com/products/%s",
		reviewURLFormat:   "https://www.g2.com/products/%s/reviews/new",
	},
	{
		Key:               KeyYelp,
		profileExpression: regexp.MustCompile(`(?i)yelp\.com/biz/([^/\s]+)`),
		profileURLFormat:  "https://www.yelp.com/biz/%s",
		reviewURLFormat:   "https://www.yelp.com/writeareview/biz/%s",
	},
}

var definitionsByKey = func() map[string]Definition {
	byKey := make(map[string]Definition, len(definitions))
	for _, definition := range definitions {
		byKey[definition.Key] = definition
	}
	return byKey
}()

// All returns the platform definitions in their fixed order.
func All() []Definition {
	return definitions
}

// Keys returns the five platform keys in their fixed order.
func Keys() []string {
	keys := make([]string, 0, len(definitions))
	for _, definition := range definitions {
		keys = append(keys, definition.Key)
	}
	return keys
}

// Lookup returns the definition for the given platform key.
func Lookup(key string) (Definition, bool) {
	definition, found := definitionsByKey[key]
	return definition, found
}

// CanonicalProfileURL matches text against the platform's profile recognizer
// and rebuilds the canonical profile URL from the captured identifiers.
func (definition Definition) CanonicalProfileURL(text string) (string, bool) {
	match := definition.profileExpression.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	captured := make([]any, 0, len(match)-1)
	for _, group := range match[1:] {
		captured = append(captured, group)
	}
	return fmt.Sprintf(definition.profileURLFormat, captured...), true
}

// ReviewURL extracts the platform identifier from a stored profile URL and
// substitutes it into the platform's review-submission template.
func (definition Definition) ReviewURL(profileURL string) (string, bool) {
	match := definition.profileExpression.FindStringSubmatch(profileURL)
	if match == nil {
		return "", false
	}
	return fmt.Sprintf(definition.reviewURLFormat, match[1]), true
}
