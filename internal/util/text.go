package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// TitleName turns a rate-center style label ("NEW_YORK CITY") into a display
// name ("New York City"). The letter after an apostrophe is capitalized too
// ("O'FALLON" -> "O'Fallon").
func TitleName(input string) string {
	s := strings.TrimSpace(strings.ReplaceAll(input, "_", " "))
	if s == "" {
		return ""
	}
	caser := cases.Title(language.Und)
	parts := strings.Split(s, "'")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "'")
}

// FirstValue returns the first non-empty value among keys, or "".
func FirstValue(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// ContainsAny reports whether s contains any of the keywords as a substring.
func ContainsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
