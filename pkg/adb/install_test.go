// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evant/adbc/pkg/wire"
)

// writeTempApk materializes an apk-extension file of n bytes.
func writeTempApk(t *testing.T, name string, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), n), 0o644))
	return path
}

func TestInstallRequest_Serialize_Cmd(t *testing.T) {
	req := &installRequest{
		path:     writeTempApk(t, "sample-fake.apk", 614),
		features: ParseFeatures("cmd"),
	}
	require.True(t, req.Validate().OK)

	got := string(req.Serialize())
	assert.Equal(t, "001Fexec:cmd package install -S 614", got)
}

func TestInstallRequest_Serialize_AbbExecWins(t *testing.T) {
	req := &installRequest{
		path:     writeTempApk(t, "sample-fake.apk", 614),
		features: ParseFeatures("cmd,abb_exec"),
	}
	require.True(t, req.Validate().OK)

	got := string(req.Serialize())
	assert.Equal(t, "001Fabb_exec:package\x00install\x00-S\x00614", got)
}

func TestInstallRequest_Serialize_ExtraArgsQuoted(t *testing.T) {
	req := &installRequest{
		path:     writeTempApk(t, "a.apk", 10),
		features: ParseFeatures("cmd"),
		opts: InstallOptions{
			ExtraArgs: []string{"--user", "it's"},
			Reinstall: true,
		},
	}
	require.True(t, req.Validate().OK)

	got := string(req.Serialize())
	assert.Equal(t, `exec:cmd package install '--user it\'s' -r -S 10`, got[4:])
}

func TestInstallRequest_Serialize_ExtraArgsAbbSeparate(t *testing.T) {
	req := &installRequest{
		path:     writeTempApk(t, "a.apk", 10),
		features: ParseFeatures("abb_exec"),
		opts:     InstallOptions{ExtraArgs: []string{"--user", "0"}},
	}
	require.True(t, req.Validate().OK)

	got := string(req.Serialize())
	assert.Equal(t, "abb_exec:package\x00install\x00--user\x000\x00-S\x0010", got[4:])
}

func TestInstallRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		features string
		wantMsg  string
	}{
		{
			name:     "missing file",
			path:     "/nonexistent/a.apk",
			features: "cmd",
			wantMsg:  "stat",
		},
		{
			name:     "bad extension",
			path:     "zip",
			features: "cmd",
			wantMsg:  "unsupported package extension",
		},
		{
			name:     "apex without feature",
			path:     "apex",
			features: "cmd",
			wantMsg:  "apex",
		},
		{
			name:     "no install transport",
			path:     "apk",
			features: "stat_v2",
			wantMsg:  "neither cmd nor abb_exec",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := tc.path
			if !strings.Contains(path, "/") {
				path = writeTempApk(t, "pkg."+tc.path, 8)
			}
			req := &installRequest{path: path, features: ParseFeatures(tc.features)}
			v := req.Validate()
			assert.False(t, v.OK)
			assert.Contains(t, v.Message, tc.wantMsg)
		})
	}
}

func TestInstallRequest_Validate_ApexWithFeature(t *testing.T) {
	req := &installRequest{
		path:     writeTempApk(t, "mod.apex", 32),
		features: ParseFeatures("cmd,apex"),
	}
	require.True(t, req.Validate().OK)
	assert.Contains(t, string(req.Serialize()), "--apex")
}

func TestParseInstallOutput(t *testing.T) {
	for _, tc := range []struct {
		output string
		want   bool
	}{
		{"Success", true},
		{"Success\n", true},
		{"  Success\n", true},
		{"Success\nWARNING: something benign", true},
		{"Failure [INSTALL_FAILED_INVALID_APK]", false},
		{"some log line\nSuccess", false},
		{"", false},
	} {
		assert.Equal(t, tc.want, parseInstallOutput(tc.output).Success, "output %q", tc.output)
	}
}

func TestClient_Install_Success(t *testing.T) {
	path := writeTempApk(t, "sample-fake.apk", 614)
	reply := append([]byte("OKAY"), okay("Success\n")...)
	c, transports := newTestClient(reply)

	var progress []float64
	res, err := c.Install(context.Background(), TargetAny, path, ParseFeatures("cmd"), InstallOptions{}, func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Success\n", res.Output)

	// Transport selection, then the command, then the raw payload bytes.
	var want []byte
	want = append(want, wire.EncodeControl([]byte("host:transport-any"))...)
	want = append(want, "001Fexec:cmd package install -S 614"...)
	want = append(want, bytes.Repeat([]byte("x"), 614)...)
	assert.Equal(t, want, transports[0].wr.Bytes())
	assert.True(t, transports[0].writeClosed, "payload EOF must be signalled by half-close")

	require.NotEmpty(t, progress)
	assert.Equal(t, 1.0, progress[len(progress)-1])
}

func TestClient_Install_Failure(t *testing.T) {
	path := writeTempApk(t, "bad.apk", 10)
	reply := append([]byte("OKAY"), okay("Failure [INSTALL_FAILED_INVALID_APK]")...)
	c, _ := newTestClient(reply)

	res, err := c.Install(context.Background(), TargetAny, path, ParseFeatures("cmd"), InstallOptions{}, nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Output, "INSTALL_FAILED_INVALID_APK")
}

func TestInstallWriteRequest_Serialize(t *testing.T) {
	base := installWriteRequest{
		session: InstallSession{ID: "session-id"},
		name:    "sample-fake.apk",
		size:    614,
	}

	cmd := base
	cmd.features = ParseFeatures("cmd")
	assert.Equal(t,
		"0042exec:cmd package install-write -S 614 session-id sample-fake.apk -",
		string(cmd.Serialize()))

	abb := base
	abb.features = ParseFeatures("cmd,abb_exec")
	assert.Equal(t,
		"0042abb_exec:package\x00install-write\x00-S\x00614\x00session-id\x00sample-fake.apk\x00-",
		string(abb.Serialize()))

	pm := base
	pm.features = ParseFeatures("")
	assert.Equal(t,
		"0039exec:pm install-write -S 614 session-id sample-fake.apk -",
		string(pm.Serialize()))
}

func TestClient_InstallWrite_Rejected(t *testing.T) {
	reply := append([]byte("OKAY"), okay("Failure [INSTALL_FAILED_INVALID_APK]")...)
	c, _ := newTestClient(reply)

	err := c.InstallWrite(context.Background(), TargetAny, ParseFeatures("cmd"),
		InstallSession{ID: "session-id"}, "bad.apk", 3, strings.NewReader("apk"), nil)
	require.ErrorIs(t, err, wire.ErrRequestRejected)
	assert.Contains(t, err.Error(), "INSTALL_FAILED_INVALID_APK")
}

func TestClient_InstallCreate(t *testing.T) {
	reply := append([]byte("OKAY"), okay("Success: created install session [12345]\n")...)
	c, transports := newTestClient(reply)

	session, err := c.InstallCreate(context.Background(), TargetAny, ParseFeatures("cmd"), InstallOptions{Reinstall: true})
	require.NoError(t, err)
	assert.Equal(t, "12345", session.ID)
	assert.Contains(t, string(transports[0].wr.Bytes()), "exec:cmd package install-create -r")
}

func TestClient_InstallCreate_PmFallback(t *testing.T) {
	reply := append([]byte("OKAY"), okay("Success: created install session [7]\n")...)
	c, transports := newTestClient(reply)

	session, err := c.InstallCreate(context.Background(), TargetAny, ParseFeatures(""), InstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "7", session.ID)
	assert.Contains(t, string(transports[0].wr.Bytes()), "exec:pm install-create")
}

func TestClient_InstallCommit(t *testing.T) {
	reply := append([]byte("OKAY"), okay("Success\n")...)
	c, transports := newTestClient(reply)

	err := c.InstallCommit(context.Background(), TargetAny, ParseFeatures("cmd"), InstallSession{ID: "12345"})
	require.NoError(t, err)
	assert.Contains(t, string(transports[0].wr.Bytes()), "exec:cmd package install-commit 12345")
}

func TestClient_InstallCommit_Rejected(t *testing.T) {
	reply := append([]byte("OKAY"), okay("Failure [INSTALL_FAILED_MISSING_SPLIT]")...)
	c, _ := newTestClient(reply)

	err := c.InstallCommit(context.Background(), TargetAny, ParseFeatures("cmd"), InstallSession{ID: "12345"})
	assert.ErrorIs(t, err, wire.ErrRequestRejected)
}
