// Package errors defines the error vocabulary shared by the protocol,
// dispatch, and server layers. Errors that cross the wire carry a stable
// error code via Coded; everything else uses the sentinel variables below
// with %w wrapping.
package errors

import (
	"errors"
	"fmt"
)

// Wire error codes. These are part of the protocol contract and must stay
// stable across releases.
const (
	CodeUnknownCommand    = "unknown_command"
	CodeInvalidArguments  = "invalid_arguments"
	CodeSchemaInvalid     = "schema_version_invalid"
	CodeSchemaLocked      = "schema_version_locked"
	CodeDeviceNotFound    = "device_not_found"
	CodeStationNotFound   = "station_not_found"
	CodeDriverError       = "driver_error"
	CodeCaptchaMissing    = "captcha_id_missing"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

// Session and registry errors
var (
	// ErrClientNotFound is returned when a session is not found in the registry
	ErrClientNotFound = errors.New("client not found")

	// ErrClientClosed is returned when sending to a closed session
	ErrClientClosed = errors.New("client closed")

	// ErrSendQueueFull is returned when a session's outbound queue is full
	ErrSendQueueFull = errors.New("send queue full")
)

// Dispatch errors
var (
	// ErrUnsupportedSchema marks a command below its minimum schema version.
	// The dispatcher produces no response for it; the error never reaches
	// the wire.
	ErrUnsupportedSchema = errors.New("command not supported at negotiated schema version")
)

// Storage errors
var (
	// ErrSessionNotFound is returned when a persisted session row is missing
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreClosed is returned when the store has been closed
	ErrStoreClosed = errors.New("store closed")
)

// Configuration errors
var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Coded wraps an error with the stable code reported to protocol clients.
type Coded struct {
	Code string
	Err  error
}

// Error implements the error interface
func (c *Coded) Error() string {
	if c.Err != nil {
		return fmt.Sprintf("%s: %s", c.Code, c.Err.Error())
	}
	return c.Code
}

// Unwrap returns the underlying error
func (c *Coded) Unwrap() error {
	return c.Err
}

// WithCode attaches a wire error code to err.
func WithCode(code string, err error) *Coded {
	return &Coded{Code: code, Err: err}
}

// Codef builds a coded error from a format string.
func Codef(code, format string, args ...any) *Coded {
	return &Coded{Code: code, Err: fmt.Errorf(format, args...)}
}

// CodeOf extracts the wire code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) string {
	var c *Coded
	if errors.As(err, &c) {
		return c.Code
	}
	return CodeInternal
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }
