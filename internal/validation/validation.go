// Package validation sanitizes and validates free-text input before it
// reaches the services. Failures wrap domain.ErrInvalidInput so controllers
// can map them to 400 responses uniformly.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gatherhub/internal/domain"
)

// Email is capped in bytes per RFC 5321; name and text caps count characters.
const (
	maxEmailLength = 254
	maxNameLength  = 100
	maxTextLength  = 2000
)

var (
	emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Patterns stripped from free text; script/iframe blocks, javascript:
	// URLs, and inline event handlers.
	dangerousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<iframe[^>]*>.*?</iframe>`),
		regexp.MustCompile(`(?i)javascript:`),
		regexp.MustCompile(`(?i)on\w+\s*=`),
	}

	htmlTagRegexp = regexp.MustCompile(`<[^>]*>`)
)

// Email normalizes (lowercase, trim) and validates an email address.
func Email(email string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(email))
	if s == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if len(s) > maxEmailLength {
		return "", fmt.Errorf("%w: email address too long", domain.ErrInvalidInput)
	}
	if !emailRegexp.MatchString(s) {
		return "", fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	return s, nil
}

// Name trims and sanitizes a display name (person, team, or event title).
// All HTML tags are stripped.
func Name(name, field string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(s) > maxNameLength {
		return "", fmt.Errorf("%w: %s must be at most %d characters", domain.ErrInvalidInput, field, maxNameLength)
	}
	s = stripDangerous(s)
	s = htmlTagRegexp.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return s, nil
}

// Text trims and sanitizes optional free text (descriptions, messages).
// Empty input is allowed and returns "".
func Text(text, field string) (string, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", nil
	}
	if utf8.RuneCountInString(s) > maxTextLength {
		return "", fmt.Errorf("%w: %s must be at most %d characters", domain.ErrInvalidInput, field, maxTextLength)
	}
	return stripDangerous(s), nil
}

func stripDangerous(s string) string {
	for _, p := range dangerousPatterns {
		s = p.ReplaceAllString(s, "")
	}
	return s
}
