package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var reSpaces = regexp.MustCompile(`\s+`)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// NormalizeHeader makes spreadsheet headers comparable: trimmed, single spaced.
func NormalizeHeader(input string) string {
	return NormalizeSpaces(strings.ReplaceAll(input, "\u00a0", " "))
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func ContainsAnyFold(s string, substrs []string) bool {
	for _, sub := range substrs {
		if ContainsFold(s, sub) {
			return true
		}
	}
	return false
}

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// OrDefault returns fallback when v is nil. Blank strings are kept as they are.
func OrDefault(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

// NonEmptyPtr returns nil for the empty string.
func NonEmptyPtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

const maxFilenameBytes = 120

func SanitizeFilename(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "\"", "_")
	out := repl.Replace(input)
	for len(out) > maxFilenameBytes {
		_, size := utf8.DecodeLastRuneInString(out)
		out = out[:len(out)-size]
	}
	return out
}
