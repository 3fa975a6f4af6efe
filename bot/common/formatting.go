package common

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatCredits formats a credit amount with thousand separators
func FormatCredits(credits int64) string {
	str := fmt.Sprintf("%d", credits)

	n := len(str)
	if n <= 3 {
		return str
	}

	var result strings.Builder
	for i, digit := range str {
		if i > 0 && (n-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(digit)
	}

	return result.String()
}

// TruncateField clamps a string to Discord's embed field limit. The
// cut never lands inside a multi-byte rune; Discord rejects embeds
// carrying invalid UTF-8.
func TruncateField(value string) string {
	const limit = 1024
	if len(value) <= limit {
		return value
	}

	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}
