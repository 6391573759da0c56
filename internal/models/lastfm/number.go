// Chartshelf - Weekly Album Chart Sync and Offline Cache
// Copyright 2026 F. Lindt (flindt)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flindt/chartshelf

package lastfm

import (
	"bytes"
	"fmt"
	"strconv"
)

// Number is an integer that unmarshals from either a bare JSON number
// or a quoted numeric string. The service is inconsistent about which
// form it emits, sometimes within a single response.
type Number int64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("number %q: %w", string(data), err)
	}
	*n = Number(v)
	return nil
}

// Int returns the value as an int.
func (n Number) Int() int { return int(n) }

// Int64 returns the value as an int64.
func (n Number) Int64() int64 { return int64(n) }
