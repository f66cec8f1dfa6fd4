// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// DefaultAddress is the loopback address the adb server listens on.
const DefaultAddress = "127.0.0.1:5037"

// DefaultConnectTimeout bounds a single dial attempt.
const DefaultConnectTimeout = 5 * time.Second

// DialerConfig configures a Dialer.
type DialerConfig struct {
	// Address is host:port of the adb server. Defaults to DefaultAddress.
	Address string
	// ConnectTimeout bounds a single dial attempt. Defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
	// RateLimit, if > 0, caps connection attempts per second. Zero disables
	// pacing entirely; this governs dialing only, never in-flight I/O on an
	// established connection.
	RateLimit float64
	// RateBurst is the token bucket burst size; defaults to 1 when RateLimit is set.
	RateBurst int
	Logger    *slog.Logger
}

// Dialer opens fresh connections to the adb server, optionally pacing
// connection attempts with a token-bucket limiter.
type Dialer struct {
	addr    string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
	netDial net.Dialer
}

// NewDialer constructs a Dialer, applying defaults for any zero fields in cfg.
func NewDialer(cfg *DialerConfig) (*Dialer, error) {
	if cfg == nil {
		cfg = &DialerConfig{}
	}
	addr := cfg.Address
	if addr == "" {
		addr = DefaultAddress
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dialer{
		addr:    addr,
		timeout: timeout,
		logger:  logger.With("component", "dialer"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return d, nil
}

// Dial opens a new connection to the adb server, waiting on the rate
// limiter first if one is configured.
func (d *Dialer) Dial(ctx context.Context) (Transport, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %w", ErrCancelled, err)
		}
	}
	dialCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	conn, err := d.netDial.DialContext(dialCtx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, d.addr, err)
	}
	d.logger.Debug("connected", "addr", d.addr)
	return NewTransport(conn), nil
}
