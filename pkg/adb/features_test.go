// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeatures(t *testing.T) {
	set := ParseFeatures("cmd,shell_v2,abb_exec,apex")

	assert.True(t, set.Supports(FeatureCmd))
	assert.True(t, set.Supports(FeatureShellV2))
	assert.True(t, set.Supports(FeatureAbbExec))
	assert.True(t, set.Supports(FeatureApex))
	assert.False(t, set.Supports(FeatureStatV2))
}

func TestParseFeatures_UnknownTokensDropped(t *testing.T) {
	set := ParseFeatures("cmd,some_future_feature,ls_v2")

	assert.Len(t, set, 2)
	assert.True(t, set.Supports(FeatureCmd))
	assert.True(t, set.Supports(FeatureLsV2))
}

func TestParseFeatures_Empty(t *testing.T) {
	assert.Empty(t, ParseFeatures(""))
}

func TestClient_Features(t *testing.T) {
	c, transports := newTestClient(okay("001acmd,shell_v2,abb_exec,apex"))

	set, err := c.Features(context.Background(), "emulator-5554")
	require.NoError(t, err)
	assert.Len(t, set, 4)
	assert.True(t, set.Supports(FeatureAbbExec))
	assert.False(t, set.Supports(FeatureStatV2))

	assert.Equal(t, []byte("0022host-serial:emulator-5554:features"), transports[0].wr.Bytes())
}
