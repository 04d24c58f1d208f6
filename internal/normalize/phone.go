// Package normalize cleans and validates free-text client input:
// phone numbers and appointment times.
package normalize

import "strings"

// minPhoneDigits is the minimum digit count for a plausible number.
const minPhoneDigits = 10

// Phone strips a raw phone string down to digits (plus an optional leading
// "+") and normalizes Russian domestic numbers to international form:
// an 11-digit number with trunk prefix 8 or country digit 7 becomes +7XXXXXXXXXX.
// Returns false when fewer than 10 digits remain.
func Phone(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	var b strings.Builder
	international := false
	for i, r := range trimmed {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			international = true
		}
	}
	digits := b.String()

	if len(digits) < minPhoneDigits {
		return "", false
	}

	if len(digits) == 11 && (digits[0] == '8' || digits[0] == '7') {
		return "+7" + digits[1:], true
	}

	if international {
		return "+" + digits, true
	}
	return digits, true
}
