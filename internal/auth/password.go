package auth

import (
	"strings"
	"unicode"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// StrongPassword reports whether the password meets the account
// policy: at least 8 characters with an upper-case letter, a
// lower-case letter, a digit and a special character.
func StrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}

	return upper && lower && digit && special
}
