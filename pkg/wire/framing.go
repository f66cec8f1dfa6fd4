// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package wire

import (
	"context"
	"fmt"
	"strconv"
)

// ControlLengthSize is the width of the hex length prefix on every
// control-channel frame.
const ControlLengthSize = 4

// EncodeControl frames a control-channel payload as its body's length,
// formatted as exactly four zero-padded uppercase hex digits, followed by
// the body itself. The codec is bit-exact: no whitespace tolerance.
func EncodeControl(body []byte) []byte {
	framed := make([]byte, 0, ControlLengthSize+len(body))
	framed = append(framed, []byte(fmt.Sprintf("%04X", len(body)))...)
	framed = append(framed, body...)
	return framed
}

// DecodeControlLength parses a 4-byte hex length prefix.
func DecodeControlLength(hdr []byte) (int, error) {
	if len(hdr) != ControlLengthSize {
		return 0, fmt.Errorf("%w: length header must be %d bytes, got %d", ErrMalformedFrame, ControlLengthSize, len(hdr))
	}
	n, err := strconv.ParseUint(string(hdr), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return int(n), nil
}

// ReadControlBody reads one hex-length-prefixed control-channel body from
// the transport: the 4-byte length header followed by exactly that many
// payload bytes.
func ReadControlBody(ctx context.Context, t Transport) ([]byte, error) {
	var hdr [ControlLengthSize]byte
	if err := t.ReadExact(ctx, hdr[:]); err != nil {
		return nil, err
	}
	n, err := DecodeControlLength(hdr[:])
	if err != nil {
		return nil, err
	}
	body := make([]byte, n)
	if n > 0 {
		if err := t.ReadExact(ctx, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}
