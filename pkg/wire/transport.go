// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package wire

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Transport is a duplex byte-stream abstraction over a single adb server
// connection. Every operation is a suspension point: a cancelled context
// unblocks in-flight I/O with ErrCancelled and closes the underlying
// connection, since the peer's state is no longer known once a read or
// write has been abandoned mid-flight.
type Transport interface {
	// WriteAll writes every byte of b or fails.
	WriteAll(ctx context.Context, b []byte) error
	// ReadExact fills buf completely or fails with ErrShortRead.
	ReadExact(ctx context.Context, buf []byte) error
	// ReadAvailable reads 1..len(buf) bytes, returning io.EOF once the peer
	// has closed its write side.
	ReadAvailable(ctx context.Context, buf []byte) (int, error)
	// Close idempotently closes the connection.
	Close() error
}

// HalfCloser is implemented by transports that can half-close their write
// side without closing the read side, signalling EOF to the peer while
// still reading its reply. The Transport returned by NewTransport
// implements it for every connection: over a connection with a CloseWrite
// method (such as *net.TCPConn) it half-closes, otherwise it closes the
// whole connection.
type HalfCloser interface {
	CloseWrite() error
}

// connTransport adapts a net.Conn to Transport, applying context
// cancellation through context.AfterFunc-driven deadlines rather than a
// goroutine race on every call.
type connTransport struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// NewTransport wraps an already-dialed net.Conn as a Transport.
func NewTransport(conn net.Conn) Transport {
	return &connTransport{conn: conn}
}

func (t *connTransport) WriteAll(ctx context.Context, b []byte) error {
	_, err := t.withCancel(ctx, func() (int, error) {
		return t.conn.Write(b)
	})
	if err != nil {
		if isCancelled(ctx) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (t *connTransport) ReadExact(ctx context.Context, buf []byte) error {
	_, err := t.withCancel(ctx, func() (int, error) {
		return io.ReadFull(t.conn, buf)
	})
	if err != nil {
		if isCancelled(ctx) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrShortRead, err)
	}
	return nil
}

func (t *connTransport) ReadAvailable(ctx context.Context, buf []byte) (int, error) {
	n, err := t.withCancel(ctx, func() (int, error) {
		return t.conn.Read(buf)
	})
	if err != nil {
		if err == io.EOF {
			return n, io.EOF
		}
		if isCancelled(ctx) {
			return n, err
		}
		return n, fmt.Errorf("%w: %w", ErrShortRead, err)
	}
	return n, nil
}

// withCancel runs fn, arming a watcher that forces conn's deadline into
// the past when ctx is done so fn unblocks promptly. Cancellation errors
// are wrapped with ErrCancelled and close the connection, matching the
// cooperative-cancellation contract: the peer's state is indeterminate
// once an operation is abandoned.
func (t *connTransport) withCancel(ctx context.Context, fn func() (int, error)) (int, error) {
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			t.conn.SetDeadline(time.Unix(0, 0))
		})
		defer stop()
	}
	n, err := fn()
	if err != nil && isCancelled(ctx) {
		t.Close()
		return n, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
	return n, err
}

func isCancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

func (t *connTransport) CloseWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hc, ok := t.conn.(interface{ CloseWrite() error }); ok {
		return hc.CloseWrite()
	}
	return t.conn.Close()
}

func (t *connTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}
