package models

import (
	"fmt"
	"strings"
)

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so a caller-controlled identifier containing ':' cannot collide with an
// adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// IPKey builds the bucket key for an unauthenticated caller.
func IPKey(ip string, class EndpointClass) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", SanitizeKeySegment(ip), class)
}

// AccountKey builds the bucket key for an authenticated caller.
func AccountKey(accountID string, class EndpointClass) string {
	return fmt.Sprintf("ratelimit:account:%s:%s", SanitizeKeySegment(accountID), class)
}
