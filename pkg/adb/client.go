// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evant/adbc/pkg/wire"
)

// Dialer opens a fresh transport to the adb server. *wire.Dialer satisfies
// this; tests substitute in-memory transports.
type Dialer interface {
	Dial(ctx context.Context) (wire.Transport, error)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Address is host:port of the adb server. Defaults to wire.DefaultAddress.
	Address string
	// ConnectTimeout bounds a single dial attempt.
	ConnectTimeout time.Duration
	// DialRateLimit, if > 0, paces connection attempts per second. The adb
	// server closes the socket after most requests, so busy callers dial
	// often; pacing applies to dialing only, never to in-flight I/O.
	DialRateLimit float64
	// DialRateBurst is the token bucket burst size when DialRateLimit is set.
	DialRateBurst int
	Logger        *slog.Logger
}

// Client issues typed requests against a locally running adb server. Each
// request runs on its own connection: the server ends the conversation
// after a response (and always after FAIL), so connections are not pooled
// or reused.
type Client struct {
	dialer Dialer
	logger *slog.Logger
}

// NewClient constructs a Client dialing the configured adb server address.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dialer, err := wire.NewDialer(&wire.DialerConfig{
		Address:        cfg.Address,
		ConnectTimeout: cfg.ConnectTimeout,
		RateLimit:      cfg.DialRateLimit,
		RateBurst:      cfg.DialRateBurst,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		dialer: dialer,
		logger: logger.With("component", "adb"),
	}, nil
}

// NewClientWithDialer constructs a Client over a caller-supplied dialer.
func NewClientWithDialer(d Dialer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		dialer: d,
		logger: logger.With("component", "adb"),
	}
}

// submit validates req, dials, selects the transport if the request names
// a target, writes the framed payload, and arbitrates the status reply.
// On success the caller owns the returned transport and must close it;
// the request's decoder reads the remainder of the stream from it.
func (c *Client) submit(ctx context.Context, req Request) (wire.Transport, error) {
	if v := req.Validate(); !v.OK {
		return nil, fmt.Errorf("%w: %s", ErrRequestValidation, v.Message)
	}

	t, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	if tgt := req.Target(); !tgt.IsHost() {
		if err := c.exchange(ctx, t, []byte(tgt.Command())); err != nil {
			t.Close()
			return nil, err
		}
	}

	if err := c.writeAndArbitrate(ctx, t, req.Serialize()); err != nil {
		t.Close()
		return nil, err
	}
	return t, nil
}

// exchange frames and writes one control body, then arbitrates the status.
func (c *Client) exchange(ctx context.Context, t wire.Transport, body []byte) error {
	return c.writeAndArbitrate(ctx, t, wire.EncodeControl(body))
}

// writeAndArbitrate writes an already-framed payload and reads the 4-byte
// OKAY/FAIL preamble that answers it.
func (c *Client) writeAndArbitrate(ctx context.Context, t wire.Transport, framed []byte) error {
	if err := t.WriteAll(ctx, framed); err != nil {
		return err
	}
	return wire.ReadStatus(ctx, t)
}

// roundTrip submits a single-shot request and decodes the one
// hex-length-prefixed body that answers it, closing the transport.
func (c *Client) roundTrip(ctx context.Context, req Request) ([]byte, error) {
	t, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return wire.ReadControlBody(ctx, t)
}

// ack submits a request answered by status alone, with no response body.
func (c *Client) ack(ctx context.Context, req Request) error {
	t, err := c.submit(ctx, req)
	if err != nil {
		return err
	}
	return t.Close()
}
