package validation

import (
	"errors"
	"strings"
	"unicode"
)

// ErrCodeRequired is returned when the country code is empty after trim.
var ErrCodeRequired = errors.New("country_code is required")

// ErrCodeMalformed is returned when the country code is not exactly two ASCII letters.
var ErrCodeMalformed = errors.New("country_code must be two letters")

// ErrNameRequired is returned when the country name is empty after trim.
var ErrNameRequired = errors.New("country_name is required")

// ErrNameTooShort is returned when the name length is below the minimum.
var ErrNameTooShort = errors.New("country_name too short")

// ErrNameTooLong is returned when the name length exceeds the maximum.
var ErrNameTooLong = errors.New("country_name too long")

// ErrNameInvalidChars is returned when the name contains disallowed characters.
var ErrNameInvalidChars = errors.New("country_name contains invalid characters")

// ValidateCountryCode trims the input and requires two ASCII letters.
// Returns the upper-cased code.
func ValidateCountryCode(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrCodeRequired
	}
	if len(s) != 2 {
		return "", ErrCodeMalformed
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return "", ErrCodeMalformed
		}
	}
	return strings.ToUpper(s), nil
}

// ValidateCountryName trims the input, enforces length bounds (minLen, maxLen in runes),
// and restricts to letters (Unicode), space, hyphen, straight and curly apostrophes,
// period, comma, ampersand and parentheses. Returns the trimmed string; case is left to the caller.
func ValidateCountryName(input string, minLen, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrNameRequired
	}
	if minLen > 0 && n < minLen {
		return "", ErrNameTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", ErrNameTooLong
	}
	for _, c := range r {
		if !isAllowedNameRune(c) {
			return "", ErrNameInvalidChars
		}
	}
	return s, nil
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsMark(r) {
		return true
	}
	switch r {
	case ' ', '-', '\'', '\u2019', '.', ',', '(', ')', '&':
		return true
	}
	return false
}
