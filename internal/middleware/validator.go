package middleware

import (
	"fmt"
	"strings"
)

// Input validation and sanitization utilities

// maxQueryLength bounds the live ICD suggestion query.
const maxQueryLength = 200

// maxTextLength bounds pasted medical text; anything longer than this is not
// a clinical note.
const maxTextLength = 100_000

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateQuery checks a suggestion query string
func ValidateQuery(query string) error {
	if len(query) > maxQueryLength {
		return fmt.Errorf("query too long (max %d characters)", maxQueryLength)
	}
	return nil
}

// ValidateTextLength checks pasted document text
func ValidateTextLength(text string) error {
	if len(text) > maxTextLength {
		return fmt.Errorf("text too long (max %d characters)", maxTextLength)
	}
	return nil
}
