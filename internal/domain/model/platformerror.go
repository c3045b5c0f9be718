package model

import (
	"errors"
	"fmt"
	"time"
)

// Session is a short-lived authenticated platform session returned by
// Authenticate and passed explicitly into each subsequent platform call.
// It is a value type and must never be cached across users or requests.
type Session struct {
	Token       string
	DisplayName string
	IssuedAt    time.Time
}

// PlatformError is the normalized form of any failure raised by the external
// fitness platform. Category is one of the four values in ErrorCategory;
// Message is safe to show to an end user.
type PlatformError struct {
	Category ErrorCategory
	Message  string
	Err      error // Underlying cause, logged server-side only.
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("platform: %s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("platform: %s: %s", e.Category, e.Message)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// NewPlatformError builds a PlatformError with the given category and
// user-facing message, wrapping cause for server-side logs.
func NewPlatformError(category ErrorCategory, message string, cause error) *PlatformError {
	return &PlatformError{Category: category, Message: message, Err: cause}
}

// CategoryOf extracts the normalized category from err. Errors that did not
// originate at the platform boundary report CategoryUnexpected.
func CategoryOf(err error) ErrorCategory {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryUnexpected
}

// UserMessageOf extracts the user-facing message from err, falling back to a
// generic apology for non-platform errors.
func UserMessageOf(err error) string {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Something went wrong. Please try again later."
}
