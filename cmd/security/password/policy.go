package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks password policy. It does not mutate input.
func (c Config) Validate(password string) error {
	// Count characters (runes), not bytes, to be user-friendly.
	n := utf8.RuneCountInString(password)

	switch {
	case strings.TrimSpace(password) == "":
		return ErrPasswordEmpty
	case n < c.Policy.MinLength:
		return ErrPasswordTooShort
	case n > c.Policy.MaxLength:
		return ErrPasswordTooLong
	case c.Policy.RejectVeryWeak && looksVeryWeak(password):
		return ErrWeakPassword
	}
	return nil
}

var trivialPasswords = map[string]struct{}{
	"password": {}, "password123": {}, "12345678": {}, "123456789": {},
	"qwerty": {}, "qwerty123": {}, "11111111": {}, "iloveyou": {},
}

// looksVeryWeak only catches the obvious cases; it is not a strength estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}
	if _, ok := trivialPasswords[strings.ToLower(s)]; ok {
		return true
	}

	first, _ := utf8.DecodeRuneInString(s)
	allSame, onlyDigits := true, true
	for _, r := range s {
		if r != first {
			allSame = false
		}
		if !unicode.IsDigit(r) {
			onlyDigits = false
		}
	}
	// PIN-like strings stay weak below 12 digits.
	return allSame || (onlyDigits && utf8.RuneCountInString(s) < 12)
}
