package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// UUIDRegex validates UUID format
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

const (
	TitleMaxLen       = 200
	DescriptionMaxLen = 4000
)

// IsValidEmail checks if the string is a valid email format
func IsValidEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}

// IsValidUUID checks if the string is a valid UUID format
func IsValidUUID(id string) bool {
	return uuidRegex.MatchString(id)
}

// ValidateTaskFields checks title and description constraints, returning
// field-level messages suitable for form feedback. Validation happens
// before any persistence attempt.
func ValidateTaskFields(title, description string) map[string]string {
	errors := make(map[string]string)

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		errors["title"] = "Title is required"
	} else if utf8.RuneCountInString(trimmed) > TitleMaxLen {
		errors["title"] = "Title cannot exceed 200 characters"
	}

	if utf8.RuneCountInString(strings.TrimSpace(description)) > DescriptionMaxLen {
		errors["description"] = "Description cannot exceed 4000 characters"
	}

	return errors
}

// SanitizeString removes potentially dangerous characters for display
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Remove control characters except newlines and tabs
	var result strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || !unicode.IsControl(r) {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// TruncateString truncates a string to maxLen characters, never splitting
// a multibyte rune.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}
