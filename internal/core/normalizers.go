package core

// normalizers.go holds the forgiving field transforms. None of them fail;
// strict checks live in validation.go.
//
// A cases.Caser is stateful, so each call builds its own.

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// genderAliases maps case-folded input to its normalized gender.
var genderAliases = map[string]Gender{
	"m":      GenderMale,
	"male":   GenderMale,
	"f":      GenderFemale,
	"female": GenderFemale,
}

// NormalizeGender buckets free-form gender input into Male, Female or Other.
// Matching is case-insensitive and anything unrecognized becomes Other.
func NormalizeGender(s string) Gender {
	if g, ok := genderAliases[cases.Fold().String(strings.TrimSpace(s))]; ok {
		return g
	}
	return GenderOther
}

// Capitalize upper-cases the first character and lower-cases the rest.
// "united states" becomes "United states", not title case.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(string(first)) + cases.Lower(language.Und).String(s[size:])
}

// DigitsOnly strips every character that is not an ASCII decimal digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}
