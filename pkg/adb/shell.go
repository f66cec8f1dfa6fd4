// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/evant/adbc/pkg/wire"
)

type shellRequest struct {
	cmd    string
	target Target
}

func (r shellRequest) Validate() ValidationResponse {
	if r.cmd == "" {
		return Invalid("shell command must not be empty")
	}
	return Valid()
}

func (r shellRequest) Target() Target              { return r.target }
func (r shellRequest) Serialize() []byte           { return frameControl("shell:" + r.cmd) }
func (r shellRequest) RequiredFeatures() []Feature { return nil }

// Shell runs cmd on the device and returns the raw output stream, stdout
// and stderr interleaved. The reader yields io.EOF when the command
// finishes; closing it closes the connection.
func (c *Client) Shell(ctx context.Context, target Target, cmd string) (io.ReadCloser, error) {
	t, err := c.submit(ctx, shellRequest{cmd: cmd, target: target})
	if err != nil {
		return nil, err
	}
	return &transportReader{ctx: ctx, t: t}, nil
}

// transportReader adapts a transport's remaining stream to io.ReadCloser.
type transportReader struct {
	ctx context.Context
	t   wire.Transport
}

func (r *transportReader) Read(p []byte) (int, error) {
	return r.t.ReadAvailable(r.ctx, p)
}

func (r *transportReader) Close() error { return r.t.Close() }

// Shell v2 packet stream ids.
const (
	shellStreamStdout byte = 1
	shellStreamStderr byte = 2
	shellStreamExit   byte = 3
)

type shellV2Request struct {
	cmd      string
	target   Target
	features FeatureSet
}

func (r shellV2Request) Validate() ValidationResponse {
	if r.cmd == "" {
		return Invalid("shell command must not be empty")
	}
	if !r.features.Supports(FeatureShellV2) {
		return Invalid("device does not support shell_v2")
	}
	return Valid()
}

func (r shellV2Request) Target() Target              { return r.target }
func (r shellV2Request) Serialize() []byte           { return frameControl("shell,v2:" + r.cmd) }
func (r shellV2Request) RequiredFeatures() []Feature { return []Feature{FeatureShellV2} }

// ShellV2 runs cmd using the shell v2 protocol, demultiplexing stdout and
// stderr into the given writers and returning the command's exit code.
// Requires the shell_v2 feature; features is the caller's snapshot for
// this device. Each packet carries a 1-byte stream id and a little-endian
// uint32 payload length; a stream-id-3 packet carries the exit code and
// terminates the stream.
func (c *Client) ShellV2(ctx context.Context, target Target, cmd string, features FeatureSet, stdout, stderr io.Writer) (int, error) {
	t, err := c.submit(ctx, shellV2Request{cmd: cmd, target: target, features: features})
	if err != nil {
		return 0, err
	}
	defer t.Close()

	var hdr [5]byte
	buf := make([]byte, 64*1024)
	for {
		if err := t.ReadExact(ctx, hdr[:]); err != nil {
			return 0, err
		}
		id := hdr[0]
		length := binary.LittleEndian.Uint32(hdr[1:])

		var sink io.Writer
		switch id {
		case shellStreamStdout:
			sink = stdout
		case shellStreamStderr:
			sink = stderr
		case shellStreamExit:
			if length != 1 {
				return 0, fmt.Errorf("%w: exit packet length %d", ErrMalformedResponse, length)
			}
			var code [1]byte
			if err := t.ReadExact(ctx, code[:]); err != nil {
				return 0, err
			}
			return int(code[0]), nil
		default:
			return 0, fmt.Errorf("%w: shell v2 stream id %d", wire.ErrUnexpectedTag, id)
		}

		remaining := int(length)
		for remaining > 0 {
			n := min(remaining, len(buf))
			if err := t.ReadExact(ctx, buf[:n]); err != nil {
				return 0, err
			}
			if sink != nil {
				if _, err := sink.Write(buf[:n]); err != nil {
					return 0, fmt.Errorf("adb: write shell output: %w", err)
				}
			}
			remaining -= n
		}
	}
}
