// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package wire implements the adb control-channel codec, the duplex
// transport abstraction, and the OKAY/FAIL status arbiter that every
// request runs through before its own decoder takes over.
package wire

import "errors"

// Sentinel errors for the wire package.
var (
	// ErrMalformedFrame indicates a length header could not be parsed.
	ErrMalformedFrame = errors.New("wire: malformed frame")

	// ErrUnexpectedTag indicates a sync tag or shell v2 stream id outside
	// the known set. An unknown status preamble is reported as
	// ErrUnexpectedTransportResponse instead.
	ErrUnexpectedTag = errors.New("wire: unexpected tag")

	// ErrShortRead indicates read_exact could not fill its buffer.
	ErrShortRead = errors.New("wire: short read")

	// ErrWriteFailed indicates write_all could not flush all bytes.
	ErrWriteFailed = errors.New("wire: write failed")

	// ErrCancelled indicates an in-flight operation was unblocked by context cancellation.
	ErrCancelled = errors.New("wire: cancelled")

	// ErrUnexpectedTransportResponse indicates the status preamble was neither OKAY nor FAIL.
	ErrUnexpectedTransportResponse = errors.New("wire: unexpected transport response")

	// ErrRequestRejected indicates the peer replied FAIL on the control channel.
	ErrRequestRejected = errors.New("wire: request rejected")

	// ErrConnectionFailed indicates a TCP connection to the adb server could not be established.
	ErrConnectionFailed = errors.New("wire: connection failed")
)
