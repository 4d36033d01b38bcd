// Package common defines shared constants and sentinel errors used across
// client and server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Capture-stage errors. Distinguished only for user messaging; all are
	// terminal for the current recording attempt.
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceNotFound    = errors.New("no recording device found")
	ErrFormatUnsupported = errors.New("recording format not supported")

	// Pipeline-stage errors. Transcription has no sentinel here on purpose:
	// the transcription stage is total and never returns an error to the
	// save path.
	ErrUploadFailed      = errors.New("upload failed")
	ErrPersistenceFailed = errors.New("persistence failed")
)
