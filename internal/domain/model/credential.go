package model

import "time"

// Credential is the metadata view of a user's stored platform credential.
// The platform email and password are held encrypted at rest and are only
// ever exposed as plaintext by the vault's Load operation; this struct
// deliberately carries no secret material.
type Credential struct {
	UserID         int64
	LastVerifiedAt *time.Time
	LastError      string // Human-readable text of the last verification failure.
	UpdatedAt      time.Time
}
