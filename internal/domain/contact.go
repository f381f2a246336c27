package domain

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\d{8,15}$`)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ToE164 keeps only the digits of a contact string.
func ToE164(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone reports whether a digits-only phone has 8 to 15 digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
