package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TurkishLower понижает регистр по правилам турецкого языка (I -> ı, İ -> i).
func TurkishLower(s string) string {
	return cases.Lower(language.Turkish).String(strings.TrimSpace(s))
}

// Slugify строит ASCII-слаг: "Ankara Şehir Hastanesi" -> "ankara-sehir-hastanesi".
func Slugify(s string) string {
	lowered := strings.ReplaceAll(TurkishLower(s), "ı", "i")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	dash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
