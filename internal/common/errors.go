// Package common defines shared constants and sentinel errors used across
// guardian components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Record store errors.
	ErrorNotFound         = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrConflict           = errors.New("conflict")
	ErrCorruptRecord      = errors.New("corrupt record")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Service-level errors.
	ErrorInternal    = errors.New("internal error")
	ErrValidation    = errors.New("validation error")
	ErrNotConfigured = errors.New("not configured")

	// Invite ledger errors.
	ErrInvalidInviteCode = errors.New("invalid invite code")
	ErrRateLimitExceeded = errors.New("invite limit exceeded for the last 168 hours")

	// Duress errors.
	ErrInvalidPin = errors.New("invalid pin")
)
