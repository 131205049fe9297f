package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title upper-cases the first letter of every word and lower-cases the rest.
func Title(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// NormalizeKey lower-cases s, trims it and replaces inner spaces with underscores.
// Used for classifier feature names.
func NormalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// NormalizeLabel lower-cases and trims a disease label for table lookups.
func NormalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Humanize turns a feature key such as "high_fever" into "high fever".
func Humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
