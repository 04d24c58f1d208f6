// Package sanitize masks personal data before it reaches logs. Operator
// messages carry the real values; log output must not.
package sanitize

import "strings"

// MaskPhone keeps the prefix and last two digits of a phone number:
// +79123456789 -> +79*******89. Short or empty values pass through.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return phone
	}
	keepHead := 3
	if strings.HasPrefix(phone, "+") {
		keepHead = 4
	}
	masked := []byte(phone)
	for i := keepHead; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return string(masked)
}

// MaskName keeps the first rune of a person's name: Алексей -> А***.
func MaskName(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	return string(runes[0]) + "***"
}
