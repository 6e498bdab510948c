// Circulation - Newspaper Circulation Analytics and Subscriber Ingestion
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/circulation

package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines the requirements for the admin password.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool

	// MaxConsecutiveRepeats caps runs of one character (0 = disabled).
	MaxConsecutiveRepeats int

	ForbidCommonPasswords    bool
	ForbidUsernameSimilarity bool
}

// DefaultPasswordPolicy returns the policy applied to ADMIN_PASSWORD.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:                12,
		RequireUppercase:         true,
		RequireLowercase:         true,
		RequireDigit:             true,
		RequireSpecial:           true,
		MaxConsecutiveRepeats:    3,
		ForbidCommonPasswords:    true,
		ForbidUsernameSimilarity: true,
	}
}

// Violations lists every rule the password breaks. An empty result means
// the password is acceptable.
func (p PasswordPolicy) Violations(password, username string) []string {
	var out []string

	if n := len([]rune(password)); n < p.MinLength {
		out = append(out, fmt.Sprintf("password must be at least %d characters (got %d)", p.MinLength, n))
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
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if p.RequireUppercase && !upper {
		out = append(out, "password must contain at least one uppercase letter")
	}
	if p.RequireLowercase && !lower {
		out = append(out, "password must contain at least one lowercase letter")
	}
	if p.RequireDigit && !digit {
		out = append(out, "password must contain at least one digit")
	}
	if p.RequireSpecial && !special {
		out = append(out, "password must contain at least one special character (!@#$%^&*...)")
	}

	if p.MaxConsecutiveRepeats > 0 && longestRun(password) > p.MaxConsecutiveRepeats {
		out = append(out, fmt.Sprintf("password cannot have more than %d consecutive repeated characters", p.MaxConsecutiveRepeats))
	}
	if p.ForbidCommonPasswords && commonPasswords[strings.ToLower(password)] {
		out = append(out, "password is too common and easily guessable")
	}
	if p.ForbidUsernameSimilarity && username != "" && similarToUsername(password, username) {
		out = append(out, "password is too similar to username")
	}
	return out
}

// ValidateWithError joins all violations into one error.
func (p PasswordPolicy) ValidateWithError(password, username string) error {
	if v := p.Violations(password, username); len(v) > 0 {
		return errors.New(strings.Join(v, "; "))
	}
	return nil
}

func longestRun(s string) int {
	longest, run := 0, 0
	var last rune
	for i, r := range s {
		if i > 0 && r == last {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		last = r
	}
	return longest
}

var leetSubstitutions = map[rune]rune{
	'a': '@', 'e': '3', 'i': '1', 'o': '0', 's': '$', 't': '7',
}

func similarToUsername(password, username string) bool {
	pass := strings.ToLower(password)
	user := strings.ToLower(username)

	if strings.Contains(pass, user) || strings.Contains(user, pass) {
		return true
	}

	runes := []rune(user)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	if strings.Contains(pass, string(runes)) {
		return true
	}

	leet := strings.Map(func(r rune) rune {
		if sub, ok := leetSubstitutions[r]; ok {
			return sub
		}
		return r
	}, user)
	return strings.Contains(pass, leet)
}

// commonPasswords holds breached and site-themed passwords, lowercased.
var commonPasswords = map[string]bool{
	"123456":         true,
	"password":       true,
	"123456789":      true,
	"12345678":       true,
	"1234567890":     true,
	"qwerty":         true,
	"abc123":         true,
	"password1":      true,
	"password123":    true,
	"password1234":   true,
	"admin":          true,
	"admin123":       true,
	"admin@123":      true,
	"administrator":  true,
	"letmein":        true,
	"letmein123":     true,
	"welcome":        true,
	"welcome1":       true,
	"welcome@123":    true,
	"p@ssw0rd":       true,
	"passw0rd!":      true,
	"password1!":     true,
	"password@123":   true,
	"changeme":       true,
	"qwertyuiop":     true,
	"1qaz2wsx":       true,
	"trustno1":       true,
	"circulation":    true,
	"circulation1":   true,
	"circulation123": true,
	"newspaper":      true,
	"newspaper1":     true,
	"subscriber":     true,
	"subscribers":    true,
	"newsroom":       true,
	"newsroom123":    true,
}
