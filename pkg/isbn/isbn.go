// Copyright (c) 2026 Shelfmark. All rights reserved.
// Author: dev@shelfmark.app

// Package isbn normalizes and validates book identifiers.
//
// # Accepted Input
//
// Users paste identifiers in many shapes ("978-0-13-468599-1", "0134685997",
// "978 0134685991"). This package strips separators and accepts only values
// that are all-numeric and exactly 10 or 13 digits long. Checksum validation
// is intentionally NOT performed here: the bibliographic provider is the
// authority on whether an identifier resolves.
package isbn

import "strings"

// Length constants for the two supported identifier formats.
const (
	Length10 = 10
	Length13 = 13
)

// Normalize strips whitespace and hyphens from a raw identifier.
func Normalize(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))

	for _, r := range raw {
		switch r {
		case ' ', '\t', '-', '–':
			continue
		default:
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// Valid reports whether the normalized identifier is an acceptable ISBN-10 or
// ISBN-13 candidate (all numeric, exactly 10 or 13 digits).
func Valid(normalized string) bool {
	if len(normalized) != Length10 && len(normalized) != Length13 {
		return false
	}

	for _, r := range normalized {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Parse normalizes raw input and reports whether the result is usable.
func Parse(raw string) (normalized string, ok bool) {
	normalized = Normalize(raw)
	return normalized, Valid(normalized)
}

// Is13 reports whether the normalized identifier is in ISBN-13 form.
func Is13(normalized string) bool {
	return len(normalized) == Length13
}
