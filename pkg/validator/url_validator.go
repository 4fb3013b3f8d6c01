package validator

import (
	"fmt"
	"net/url"
	"strings"
)

// MaxURLLength is the longest target URL accepted for shortening
const MaxURLLength = 2000

// allowedSchemes lists permitted URL schemes
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
}

// ValidationError represents a validation failure with field-level detail
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateURL checks that a string is an absolute http(s) URL of acceptable
// length. Rejection happens before anything is persisted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL cannot be empty"}
	}

	if len(rawURL) > MaxURLLength {
		return &ValidationError{Field: "url", Message: "URL too long (max 2000 characters)"}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: "Invalid URL structure"}
	}

	if !parsed.IsAbs() {
		return &ValidationError{Field: "url", Message: "URL must be absolute"}
	}

	if !allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return &ValidationError{Field: "url", Message: "Unsupported URL scheme"}
	}

	if parsed.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must contain a host"}
	}

	return nil
}

// ValidateExpiryDays checks the requested expiry window. Zero means the
// caller omitted it and the default applies; anything else must fall in
// [1, maxDays].
func ValidateExpiryDays(days, maxDays int) error {
	if days == 0 {
		return nil
	}
	if days < 1 || days > maxDays {
		return &ValidationError{
			Field:   "expires_in",
			Message: fmt.Sprintf("expires_in must be between 1 and %d", maxDays),
		}
	}
	return nil
}
