// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials reports a missing, placeholder or
	// service-rejected API key. Raised before any network call when
	// the key is locally known to be unusable.
	ErrInvalidCredentials = errors.New("invalid API credentials")

	// ErrUserNotFound reports that the service does not know the
	// requested username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnavailable reports a transport-level failure: no
	// connectivity, DNS failure, timeout, host unreachable, or a
	// request rejected by an open circuit breaker.
	ErrUnavailable = errors.New("service unreachable")

	// ErrServiceUnavailable reports a remote-side outage signalled by
	// the service's own error codes (offline / temporarily
	// unavailable).
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse reports an error status whose body could not
	// be parsed into the service's error envelope.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError is the catch-all for service error codes without a
// dedicated mapping.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// DecodeError reports a successful HTTP response whose body failed to
// decode into the expected shape.
type DecodeError struct {
	Method string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s response: %v", e.Method, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
