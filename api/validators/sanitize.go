package validators

import "strings"

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 {
		if runes := []rune(trimmed); len(runes) > maxLen {
			return strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return trimmed
}
