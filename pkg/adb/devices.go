// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"strings"
)

// DeviceState is the connection state reported for an attached device.
type DeviceState string

const (
	StateDevice       DeviceState = "device"
	StateOffline      DeviceState = "offline"
	StateUnauthorized DeviceState = "unauthorized"
	StateUnknown      DeviceState = "unknown"
)

func parseDeviceState(s string) DeviceState {
	switch DeviceState(s) {
	case StateDevice, StateOffline, StateUnauthorized:
		return DeviceState(s)
	default:
		return StateUnknown
	}
}

// Device is one attached device or emulator as reported by the server.
// Attrs holds the key:value pairs of the long listing format (product,
// model, device, transport_id).
type Device struct {
	Serial string
	State  DeviceState
	Attrs  map[string]string
}

// Devices lists attached devices using the long format, one Device per
// line of the response. A blank body is an empty listing, not an error.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	body, err := c.roundTrip(ctx, controlRequest{body: "host:devices-l"})
	if err != nil {
		return nil, err
	}
	return parseDeviceList(string(body)), nil
}

// parseDeviceList decodes devices-l output: per line, a serial, the
// state, then key:value attribute pairs, all whitespace-separated.
func parseDeviceList(body string) []Device {
	devices := []Device{}
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		d := Device{
			Serial: fields[0],
			State:  parseDeviceState(fields[1]),
			Attrs:  make(map[string]string),
		}
		for _, f := range fields[2:] {
			if k, v, ok := strings.Cut(f, ":"); ok {
				d.Attrs[k] = v
			}
		}
		devices = append(devices, d)
	}
	return devices
}
