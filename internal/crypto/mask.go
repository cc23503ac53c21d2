package crypto

import (
	"strings"
	"unicode/utf8"
)

// MaskName keeps the first character of every name part, e.g.
// "Usama bin Laden" becomes "U*** b*** L***"
func MaskName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	for i, p := range parts {
		r, _ := utf8.DecodeRuneInString(p)
		parts[i] = string(r) + "***"
	}
	return strings.Join(parts, " ")
}

// NameMasker returns MaskName when enabled and the identity otherwise
func NameMasker(enabled bool) func(string) string {
	if enabled {
		return MaskName
	}
	return func(s string) string { return s }
}
