package extract

import (
	"regexp"
	"strings"
)

const (
	// MaxKeyLength bounds the length of a suggested key.
	MaxKeyLength = 40
	// FallbackKey is suggested when the text has no usable words.
	FallbackKey = "newKey"
)

var (
	placeholderBlock = regexp.MustCompile(`\{[^{}]*\}`)
	nonWordChars     = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// SuggestKey builds a camelCase key from placeholder-normalised text:
// "Order not found {code}" -> "orderNotFound".
func SuggestKey(text string) string {
	text = placeholderBlock.ReplaceAllString(text, " ")
	text = nonWordChars.ReplaceAllString(text, "")
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))

	var b strings.Builder
	for i, w := range words {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		b.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}

	// Keys must start with a letter.
	key := strings.TrimLeft(b.String(), "0123456789")
	if key != "" {
		key = strings.ToLower(key[:1]) + key[1:]
	}
	if len(key) > MaxKeyLength {
		key = key[:MaxKeyLength]
	}
	if key == "" {
		return FallbackKey
	}
	return key
}
