// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

/*
Package lastfm implements the remote data client for the
audioscrobbler-style chart API.

The Client is a stateless request builder, typed decoder and error
mapper. It validates credentials before touching the network, paces
requests with a token bucket, and never retries: retry policy belongs
to the user-initiated reload path, not the transport.

Error mapping:

  - transport failures (DNS, timeout, unreachable) -> ErrUnavailable
  - HTTP error status with a decodable {error, message} envelope ->
    ErrUserNotFound / ErrInvalidCredentials / ErrServiceUnavailable
    for known codes, APIError{Code, Message} for the rest
  - HTTP error status with an undecodable body -> ErrInvalidResponse
  - success status with an undecodable body -> DecodeError

BreakerClient wraps the client with a sony/gobreaker circuit breaker;
a rejected request surfaces as ErrUnavailable, which callers already
treat as a soft, retry-later condition.
*/
package lastfm
