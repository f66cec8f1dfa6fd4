// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package adb is a client for the Android Debug Bridge wire protocol. It
// speaks the length-prefixed control channel to a locally running adb
// server, decoding typed responses: device listings, shell streams, file
// transfers over the sync sub-protocol, feature probes, and package
// installs over exec/abb_exec.
package adb

import "errors"

// Sentinel errors for the adb package.
var (
	// ErrRequestValidation indicates a request failed its own validation
	// before any network I/O took place.
	ErrRequestValidation = errors.New("adb: request validation")

	// ErrMalformedResponse indicates a decoded control-channel body did
	// not have the shape the request expected.
	ErrMalformedResponse = errors.New("adb: malformed response")
)
