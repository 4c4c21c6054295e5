// Package postal canonicalizes postal codes and derives them from free-text
// addresses. Normalize is the only equality basis for jurisdiction checks:
// raw strings vary in spacing, punctuation and case depending on whether they
// came from user input or a geocoder.
package postal

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]`)
	pin6     = regexp.MustCompile(`\b(\d{6})\b`)
	zip5     = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	numGroup = regexp.MustCompile(`\b(\d{3,6})\b`)
)

// Normalize strips every non-alphanumeric character and lowercases.
// Empty or absent input yields the empty string. Idempotent.
func Normalize(raw string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// Equal compares two postal codes under normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// ExtractPostalCode pulls a postal code out of a free-text address.
// Order: first 6-digit run, else first 5-digit run (an optional -4 suffix is
// discarded), else first 3-6 digit run, else the last comma-separated segment
// stripped of non-alphanumerics, else empty.
func ExtractPostalCode(address string) string {
	a := strings.TrimSpace(address)
	if a == "" {
		return ""
	}

	if m := pin6.FindStringSubmatch(a); m != nil {
		return m[1]
	}
	if m := zip5.FindStringSubmatch(a); m != nil {
		return m[1]
	}
	if m := numGroup.FindStringSubmatch(a); m != nil {
		return m[1]
	}

	parts := strings.Split(a, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		last := strings.TrimSpace(parts[i])
		if last == "" {
			continue
		}
		if cleaned := nonAlnum.ReplaceAllString(last, ""); cleaned != "" {
			return cleaned
		}
	}
	return ""
}
