package service

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	minPasswordLength = 6

	// characters permitted in usernames
	usernameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+"
)

// PasswordPolicyErrors returns one message per password rule violated,
// or nil when the password is acceptable
func PasswordPolicyErrors(password string) []string {
	var (
		errs                         []string
		hasDigit, hasLower, hasUpper bool
		hasSymbol                    bool
	)

	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			hasSymbol = true
		}
	}

	if len([]rune(password)) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength))
	}
	if !hasSymbol {
		errs = append(errs, "Passwords must have at least one non alphanumeric character.")
	}
	if !hasDigit {
		errs = append(errs, "Passwords must have at least one digit ('0'-'9').")
	}
	if !hasLower {
		errs = append(errs, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !hasUpper {
		errs = append(errs, "Passwords must have at least one uppercase ('A'-'Z').")
	}

	return errs
}

// usernameErrors checks the characters of a username
func usernameErrors(username string) []string {
	invalid := username == ""
	for _, r := range username {
		if !strings.ContainsRune(usernameAlphabet, r) {
			invalid = true
			break
		}
	}
	if invalid {
		return []string{fmt.Sprintf("Username '%s' is invalid, can only contain letters or digits.", username)}
	}
	return nil
}
