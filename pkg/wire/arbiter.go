// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package wire

import (
	"context"
	"fmt"
)

// ReadStatus reads the 4-byte status preamble that answers every
// control-channel request. On OKAY it returns nil and the request's own
// decoder takes over the transport. On FAIL it reads the length-prefixed
// UTF-8 error message and returns it wrapped in ErrRequestRejected so
// callers can still match the sentinel with errors.Is. Any other 4 bytes
// fail with ErrUnexpectedTransportResponse.
func ReadStatus(ctx context.Context, t Transport) error {
	var hdr [4]byte
	if err := t.ReadExact(ctx, hdr[:]); err != nil {
		return err
	}
	switch string(hdr[:]) {
	case "OKAY":
		return nil
	case "FAIL":
		var lenHdr [ControlLengthSize]byte
		if err := t.ReadExact(ctx, lenHdr[:]); err != nil {
			return err
		}
		n, err := DecodeControlLength(lenHdr[:])
		if err != nil {
			return err
		}
		msg := make([]byte, n)
		if err := t.ReadExact(ctx, msg); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrRequestRejected, string(msg))
	default:
		return fmt.Errorf("%w: got %q", ErrUnexpectedTransportResponse, string(hdr[:]))
	}
}
