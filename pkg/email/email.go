// Package email derives presentable fallbacks from email addresses for
// profiles that never filled in a display name.
package email

import (
	"strings"
	"unicode"
)

// DisplayName derives a human-readable name from the address's local part:
// "maria.santos+donor@example.org" becomes "Maria Santos". Returns "Donor"
// when nothing usable is left.
func DisplayName(addr string) string {
	localPart := addr
	if at := strings.IndexByte(addr, '@'); at >= 0 {
		localPart = addr[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "Donor"
	}

	for i, p := range parts {
		parts[i] = capitalize(p)
	}
	return strings.Join(parts, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
