// Package common defines shared constants and sentinel errors used across
// the TaskHub server and client. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")
	ErrValidation = errors.New("validation error")

	// Credential errors. Login failures never say which half was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateLogin     = errors.New("login taken")
	ErrUserNotFound       = errors.New("user not found")

	// Token errors (bad signature, malformed, wrong algorithm or expired).
	ErrInvalidToken = errors.New("invalid token")

	// Session lifecycle errors.
	ErrSessionNotActive = errors.New("session not active")

	// Authorization errors.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)
