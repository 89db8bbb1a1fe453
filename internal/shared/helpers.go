// Package shared provides common utility functions used across multiple
// packages in the modforge codebase.
package shared

import (
	"fmt"
	"strings"
)

// NormalizeSlug lowercases a mod slug and replaces underscores with
// hyphens, matching the metadata service's slug normalization.
func NormalizeSlug(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(lower, "_", "-")
}

// HTTPStatusError creates a formatted error for non-2xx HTTP responses.
func HTTPStatusError(status int, url string) error {
	return fmt.Errorf("status=%d url=%s", status, url)
}

// PairKey builds an order-independent key for a mod id pair, used by
// conflict exemption lookups.
func PairKey(a string, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
