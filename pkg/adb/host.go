// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"fmt"
	"strconv"
)

// Version returns the adb server's internal version number. The response
// body is the version as 4 hex ASCII digits.
func (c *Client) Version(ctx context.Context) (int, error) {
	body, err := c.roundTrip(ctx, controlRequest{body: "host:version"})
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(string(body), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: version %q: %w", ErrMalformedResponse, body, err)
	}
	return int(v), nil
}
