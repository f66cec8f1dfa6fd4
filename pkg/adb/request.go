// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import "github.com/evant/adbc/pkg/wire"

// ValidationResponse is the synchronous verdict a request produces over
// its own parameters before any I/O happens.
type ValidationResponse struct {
	OK      bool
	Message string
}

// Valid returns a passing validation response.
func Valid() ValidationResponse { return ValidationResponse{OK: true} }

// Invalid returns a failing validation response with a message.
func Invalid(msg string) ValidationResponse { return ValidationResponse{Message: msg} }

// Request is the contract every control-channel request satisfies.
//
// Validate runs before any network work; a failing response surfaces as
// ErrRequestValidation and the socket is never touched. Target names the
// device the request runs against; the client sends and acknowledges the
// transport selection before the request payload. Serialize produces the
// framed control-channel payload; it is deterministic and may be called
// more than once. RequiredFeatures names device features the request
// depends on, for callers that gate before submitting; requests holding a
// feature snapshot also enforce these in Validate.
//
// Decoding is not part of this interface: single-shot requests decode one
// control body, streaming requests (pull, push, install) take over the
// transport until their terminal value. Each Client method pairs a
// Request with its own typed decoder.
type Request interface {
	Validate() ValidationResponse
	Target() Target
	Serialize() []byte
	RequiredFeatures() []Feature
}

// frameControl frames a UTF-8 control payload.
func frameControl(body string) []byte {
	return wire.EncodeControl([]byte(body))
}

// controlRequest is a plain single-shot control request with no
// parameters beyond its payload and target.
type controlRequest struct {
	body   string
	target Target
}

func (r controlRequest) Validate() ValidationResponse { return Valid() }
func (r controlRequest) Target() Target               { return r.target }
func (r controlRequest) Serialize() []byte            { return frameControl(r.body) }
func (r controlRequest) RequiredFeatures() []Feature  { return nil }
