package repositories

import "strings"

// Postgres rejects UTF-8 strings containing null bytes, and upstream model
// output occasionally carries them. Every string persisted by this package is
// passed through these helpers first.

// SanitizeText strips null bytes and trims surrounding whitespace.
func SanitizeText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

// Sanitize cleans an optional field, collapsing to nil when nothing but
// whitespace or null bytes remains.
func Sanitize(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := SanitizeText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
