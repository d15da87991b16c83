package dataset

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ValidateLabel rejects labels that cannot round-trip through the dataset and attendance files.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("empty label")
	}
	if strings.ContainsAny(label, ",\r\n") {
		return errors.New("label contains a comma or line break")
	}
	return nil
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeLabel normalizes a label for comparison (lowercase, no diacritics, spaces for dashes
// and underscores).
func NormalizeLabel(label string) string {
	label = RemoveDiacritics(label)
	label = strings.ToLower(label)
	label = strings.NewReplacer("-", " ", "_", " ").Replace(label)
	return strings.TrimSpace(label)
}
