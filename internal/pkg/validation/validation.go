package validation

import (
	"strings"
	"unicode/utf8"
)

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// WithinLength counts runes, not bytes, so Korean text is measured by characters.
func WithinLength(s string, max int) bool {
	return utf8.RuneCountInString(s) <= max
}
