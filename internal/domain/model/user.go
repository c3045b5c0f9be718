// Package model contains pure domain types with no external dependencies.
package model

import "time"

// User is an end-user account. Athletes may be linked to a coach via CoachID.
// The password hash never leaves the persistence and auth layers.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	IsActive     bool
	CoachID      *int64 // Set only for athletes linked to a coach.
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
