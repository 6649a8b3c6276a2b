package utils

import (
	"net/mail"
	"strings"
)

// ExtractAddress returns the bare address of a header value such as
// `"Jane Doe" <jane@example.com>`. Unparseable values fall back to the text
// between the last pair of angle brackets, then to the trimmed input.
func ExtractAddress(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if addr, err := mail.ParseAddress(value); err == nil {
		return strings.ToLower(addr.Address)
	}

	if strings.Contains(value, "<") && strings.Contains(value, ">") {
		startIdx := strings.LastIndex(value, "<") + 1
		endIdx := strings.LastIndex(value, ">")
		if startIdx > 0 && endIdx > startIdx {
			return strings.ToLower(strings.TrimSpace(value[startIdx:endIdx]))
		}
	}

	return strings.ToLower(value)
}

// ExtractDisplayName returns the personal name part of an address header, if any.
func ExtractDisplayName(value string) string {
	if addr, err := mail.ParseAddress(strings.TrimSpace(value)); err == nil {
		return addr.Name
	}
	if idx := strings.Index(value, "<"); idx > 0 {
		return strings.Trim(strings.TrimSpace(value[:idx]), `"`)
	}
	return ""
}
