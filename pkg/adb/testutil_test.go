// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"bytes"
	"context"
	"io"

	"github.com/evant/adbc/pkg/wire"
)

// fakeTransport feeds a pre-recorded server reply and captures everything
// the client writes, standing in for a live adb server connection.
type fakeTransport struct {
	rd          *bytes.Reader
	wr          bytes.Buffer
	writeClosed bool
	closed      bool
}

func newFakeTransport(reply []byte) *fakeTransport {
	return &fakeTransport{rd: bytes.NewReader(reply)}
}

func (t *fakeTransport) WriteAll(_ context.Context, b []byte) error {
	if t.writeClosed {
		return wire.ErrWriteFailed
	}
	_, err := t.wr.Write(b)
	return err
}

func (t *fakeTransport) ReadExact(_ context.Context, buf []byte) error {
	_, err := io.ReadFull(t.rd, buf)
	return err
}

func (t *fakeTransport) ReadAvailable(_ context.Context, buf []byte) (int, error) {
	return t.rd.Read(buf)
}

func (t *fakeTransport) CloseWrite() error {
	t.writeClosed = true
	return nil
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

// fakeDialer hands out one transport per Dial call.
type fakeDialer struct {
	transports []*fakeTransport
	dials      int
}

func (d *fakeDialer) Dial(_ context.Context) (wire.Transport, error) {
	if d.dials >= len(d.transports) {
		return nil, wire.ErrConnectionFailed
	}
	t := d.transports[d.dials]
	d.dials++
	return t, nil
}

// newTestClient builds a client whose next connections replay the given
// replies in order, returning the transports for write assertions.
func newTestClient(replies ...[]byte) (*Client, []*fakeTransport) {
	transports := make([]*fakeTransport, len(replies))
	for i, r := range replies {
		transports[i] = newFakeTransport(r)
	}
	return NewClientWithDialer(&fakeDialer{transports: transports}, nil), transports
}

// okay prepends an OKAY status to body, the usual control-channel answer.
func okay(body string) []byte {
	return append([]byte("OKAY"), body...)
}
