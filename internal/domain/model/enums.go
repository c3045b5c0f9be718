package model

// Role represents a user's role in the system.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

// Sport categorizes a workout by discipline. The platform reports free-form
// sport keys; anything unrecognized maps to SportOther.
type Sport string

const (
	SportRun      Sport = "run"
	SportBike     Sport = "bike"
	SportSwim     Sport = "swim"
	SportStrength Sport = "strength"
	SportOther    Sport = "other"
)

// ShareStatus represents the lifecycle state of a shared workout.
// StatusImporting is an internal in-flight claim marker; it is reported
// to clients as pending.
type ShareStatus string

const (
	StatusPending   ShareStatus = "pending"
	StatusImporting ShareStatus = "importing"
	StatusImported  ShareStatus = "imported"
	StatusFailed    ShareStatus = "failed"
)

// Terminal reports whether no further import attempts are allowed from this state.
func (s ShareStatus) Terminal() bool {
	return s == StatusImported
}

// ErrorCategory is the normalized error vocabulary for platform failures.
// It is the only error shape that crosses the platform-integration boundary.
type ErrorCategory string

const (
	CategoryInvalidCredentials  ErrorCategory = "invalid_credentials"
	CategoryRateLimited         ErrorCategory = "rate_limited"
	CategoryPlatformUnavailable ErrorCategory = "platform_unavailable"
	CategoryUnexpected          ErrorCategory = "unexpected"
)
