package utils

import (
	"regexp"
	"strings"
	"unicode"

	"orubacontacts/internal/apperrors"
)

const phoneShape = "11 digits (0xxxxxxxxxx)"

var (
	phoneSeparators = regexp.MustCompile(`[\s\-().+]`)
	nonDigits       = regexp.MustCompile(`\D`)

	emailPattern = regexp.MustCompile("^[a-z0-9!#$%&'*+/=?^_\\x60{|}~-]+(?:\\.[a-z0-9!#$%&'*+/=?^_\\x60{|}~-]+)*" +
		"@(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$")
)

// NormalizePhone приводит номер к национальному формату 0xxxxxxxxxx.
func NormalizePhone(raw string) (string, error) {
	cleaned := phoneSeparators.ReplaceAllString(raw, "")
	cleaned = nonDigits.ReplaceAllString(cleaned, "")

	if cleaned != "" && !strings.HasPrefix(cleaned, "0") {
		cleaned = "0" + cleaned
	}

	if len(cleaned) != 11 {
		return "", &apperrors.FormatError{
			Kind:     "phone",
			Input:    cleaned,
			Expected: phoneShape,
			Digits:   len(cleaned),
		}
	}

	return cleaned, nil
}

// NormalizeEmail обрезает пробелы, приводит к нижнему регистру и проверяет адрес.
func NormalizeEmail(raw string) (string, error) {
	cleaned := strings.ToLower(stripSpace(raw))

	fail := func(reason string) (string, error) {
		return "", &apperrors.FormatError{Kind: "email", Input: raw, Reason: reason}
	}

	if cleaned == "" {
		return fail("email address is required")
	}

	at := strings.Index(cleaned, "@")
	switch {
	case at == -1:
		return fail("missing @ symbol")
	case at == 0 || strings.HasSuffix(cleaned, "@"):
		return fail("cannot start or end with @ symbol")
	case strings.Contains(cleaned, ".."):
		return fail("consecutive dots")
	case !strings.Contains(cleaned[at+1:], "."):
		return fail("domain must contain at least one dot")
	case !emailPattern.MatchString(cleaned):
		return fail("malformed address")
	}

	return cleaned, nil
}

// stripSpace убирает любые пробельные символы Unicode, включая неразрывный пробел.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
