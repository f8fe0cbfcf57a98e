package api

import (
	"net/url"
	"strings"
)

// pathRef decodes a reference taken from the URL path. References may be ids,
// names or breadcrumbs, so spaces and ">" arrive percent-encoded.
func pathRef(raw string) string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return strings.TrimSpace(raw)
}

// orEmpty returns a non-nil slice so lists encode as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
