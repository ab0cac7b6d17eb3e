// Package phone normalizes Turkish phone numbers the way the rest of the
// system stores them: bare digits, no country code.
package phone

import "strings"

// Normalize strips spaces, dashes, parentheses and a leading plus, leaving
// only digits in whatever form the caller typed them.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch r {
		case ' ', '\t', '-', '(', ')', '+':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StripCountryCode removes a leading "90" country code or "0" trunk prefix
// from an already normalized number.
func StripCountryCode(normalized string) string {
	if len(normalized) == 12 && strings.HasPrefix(normalized, "90") {
		return normalized[2:]
	}
	if len(normalized) == 11 && strings.HasPrefix(normalized, "0") {
		return normalized[1:]
	}
	return normalized
}

// Last10 returns the last ten digits, the part two differently formatted
// copies of the same number agree on.
func Last10(normalized string) string {
	if len(normalized) <= 10 {
		return normalized
	}
	return normalized[len(normalized)-10:]
}

// IsMobile reports whether the number is a valid Turkish mobile number:
// exactly ten digits starting with 5 after country-code stripping.
func IsMobile(raw string) bool {
	n := StripCountryCode(Normalize(raw))
	if len(n) != 10 || n[0] != '5' {
		return false
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return false
		}
	}
	return true
}

// ToE164 prefixes the number with +90 unless it already carries the country
// code.
func ToE164(raw string) string {
	n := Normalize(raw)
	if strings.HasPrefix(n, "90") && len(n) == 12 {
		return "+" + n
	}
	return "+90" + StripCountryCode(n)
}
