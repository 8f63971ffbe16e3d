package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

func rule(field, message string, check func() bool) Rule {
	return Rule{Check: check, Error: ValidationError{Field: field, Message: message}}
}

// Optional skips r when value is empty.
func Optional(value string, r Rule) Rule {
	check := r.Check
	r.Check = func() bool {
		return strings.TrimSpace(value) == "" || check()
	}
	return r
}

// Required fails on empty or whitespace-only values.
func Required(field, value string) Rule {
	return rule(field, "field is required", func() bool {
		return strings.TrimSpace(value) != ""
	})
}

// MinLen counts runes.
func MinLen(field, value string, min int) Rule {
	return rule(field, fmt.Sprintf("must be at least %d characters long", min), func() bool {
		return utf8.RuneCountInString(value) >= min
	})
}

// MaxLen counts runes.
func MaxLen(field, value string, max int) Rule {
	return rule(field, fmt.Sprintf("must be at most %d characters long", max), func() bool {
		return utf8.RuneCountInString(value) <= max
	})
}

// EqualTo fails unless value equals other.
func EqualTo(field, value, other, otherField string) Rule {
	return rule(field, "must match "+otherField, func() bool {
		return value == other
	})
}

// ValidEmail accepts a bare RFC 5322 address whose domain has a dot.
func ValidEmail(field, value string) Rule {
	return rule(field, "must be a valid email address", func() bool {
		value := strings.TrimSpace(value)
		addr, err := mail.ParseAddress(value)
		if err != nil || addr.Address != value || addr.Name != "" {
			return false
		}
		local, domain, ok := strings.Cut(addr.Address, "@")
		if !ok || local == "" {
			return false
		}
		if !strings.Contains(domain, ".") {
			return false
		}
		for part := range strings.SplitSeq(domain, ".") {
			if part == "" {
				return false
			}
		}
		return true
	})
}

// PasswordStrengthConfig describes an acceptable password.
type PasswordStrengthConfig struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigits    bool
	RequireSpecial   bool
}

// DefaultPasswordStrength requires 8-32 characters mixing upper and lower
// case letters, digits and symbols.
func DefaultPasswordStrength() PasswordStrengthConfig {
	return PasswordStrengthConfig{
		MinLength:        8,
		MaxLength:        32,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigits:    true,
		RequireSpecial:   true,
	}
}

func StrongPassword(field, value string, cfg PasswordStrengthConfig) Rule {
	msg := fmt.Sprintf("password must be %d-%d characters with upper and lower case letters, digits and symbols",
		cfg.MinLength, cfg.MaxLength)
	return rule(field, msg, func() bool {
		n := utf8.RuneCountInString(value)
		if n < cfg.MinLength || (cfg.MaxLength > 0 && n > cfg.MaxLength) {
			return false
		}
		var upper, lower, digit, special bool
		for _, r := range value {
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
		return (upper || !cfg.RequireUppercase) &&
			(lower || !cfg.RequireLowercase) &&
			(digit || !cfg.RequireDigits) &&
			(special || !cfg.RequireSpecial)
	})
}
