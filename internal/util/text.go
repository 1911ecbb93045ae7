package util

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// SanitizeText strips null bytes and invalid UTF-8 so the value is safe for
// Postgres text columns and JSON responses.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateChars cuts s to at most limit runes without splitting a rune.
func TruncateChars(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

var (
	encoderOnce sync.Once
	encoder     *tiktoken.Tiktoken
)

// CountTokens estimates the token count of s using the cl100k_base encoding.
// When the encoding cannot be loaded it falls back to a bytes/4 estimate so
// callers never fail on token accounting alone.
func CountTokens(s string) int {
	encoderOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return
		}
		encoder = enc
	})
	if encoder == nil {
		return len(s) / 4
	}
	return len(encoder.Encode(s, nil, nil))
}
