package garmin

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/jdambron/coachsync/internal/domain/model"
)

// normalizeStatus folds an HTTP status code into the four-category taxonomy
// with a message safe to show to an end user.
func normalizeStatus(status int) *model.PlatformError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.NewPlatformError(model.CategoryInvalidCredentials,
			"The platform rejected the stored credentials. Please re-enter your email and password.", nil)
	case status == http.StatusTooManyRequests:
		return model.NewPlatformError(model.CategoryRateLimited,
			"The platform is limiting requests from this account. Please wait a few minutes and try again.", nil)
	case status >= 500:
		return model.NewPlatformError(model.CategoryPlatformUnavailable,
			"The platform is currently unavailable. This is usually temporary.", nil)
	default:
		return model.NewPlatformError(model.CategoryUnexpected,
			"The platform returned an unexpected response.",
			errors.New(http.StatusText(status)))
	}
}

// normalizeTransportError folds a transport-level failure into the taxonomy.
// Timeouts and unreachable hosts are transient, so they map to
// platform_unavailable and are safe to retry.
func normalizeTransportError(err error) *model.PlatformError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return model.NewPlatformError(model.CategoryPlatformUnavailable,
			"The platform did not respond in time. Please try again in a few minutes.", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return model.NewPlatformError(model.CategoryPlatformUnavailable,
			"Could not reach the platform. Please check back shortly.", err)
	}

	return model.NewPlatformError(model.CategoryUnexpected,
		"Something went wrong talking to the platform.", err)
}
