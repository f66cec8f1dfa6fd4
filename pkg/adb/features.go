// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"fmt"
	"strings"
)

// Feature is a symbolic capability advertised by a device, indicating
// support for a protocol extension.
type Feature string

// Known device features. Tokens outside this set are dropped silently
// when parsing, for forward compatibility with newer devices.
const (
	FeatureCmd            Feature = "cmd"
	FeatureAbbExec        Feature = "abb_exec"
	FeatureApex           Feature = "apex"
	FeatureShellV2        Feature = "shell_v2"
	FeatureStatV2         Feature = "stat_v2"
	FeatureLsV2           Feature = "ls_v2"
	FeatureFixedPushMkdir Feature = "fixed_push_mkdir"
)

var knownFeatures = map[Feature]bool{
	FeatureCmd:            true,
	FeatureAbbExec:        true,
	FeatureApex:           true,
	FeatureShellV2:        true,
	FeatureStatV2:         true,
	FeatureLsV2:           true,
	FeatureFixedPushMkdir: true,
}

// FeatureSet is a per-device, per-connection snapshot of advertised
// features. It is passed by value into gating logic; refreshing it when
// the device changes is the caller's responsibility.
type FeatureSet map[Feature]struct{}

// ParseFeatures parses a comma-separated feature token list, dropping
// unknown tokens.
func ParseFeatures(s string) FeatureSet {
	set := make(FeatureSet)
	for _, tok := range strings.Split(s, ",") {
		f := Feature(strings.TrimSpace(tok))
		if knownFeatures[f] {
			set[f] = struct{}{}
		}
	}
	return set
}

// Supports reports whether the device advertised f.
func (s FeatureSet) Supports(f Feature) bool {
	_, ok := s[f]
	return ok
}

// featuresRequest fetches the feature list for a device by serial. It is
// host-addressed: the serial rides in the payload, not in a transport
// selection.
type featuresRequest struct {
	serial string
}

func (r featuresRequest) Validate() ValidationResponse {
	if r.serial == "" {
		return Invalid("serial must not be empty")
	}
	return Valid()
}

func (r featuresRequest) Target() Target { return TargetHost }

func (r featuresRequest) Serialize() []byte {
	return frameControl(fmt.Sprintf("host-serial:%s:features", r.serial))
}

func (r featuresRequest) RequiredFeatures() []Feature { return nil }

// Features fetches and parses the feature set advertised for the device
// with the given serial.
func (c *Client) Features(ctx context.Context, serial string) (FeatureSet, error) {
	body, err := c.roundTrip(ctx, featuresRequest{serial: serial})
	if err != nil {
		return nil, err
	}
	return ParseFeatures(string(body)), nil
}
