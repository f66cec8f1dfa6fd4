// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/evant/adbc/pkg/wire"
)

// installChunkSize is the buffer size used to stream package payloads.
const installChunkSize = 64 * 1024

// InstallOptions tunes a package install.
type InstallOptions struct {
	// ExtraArgs are passed through to the package manager. Over abb_exec
	// each element is its own argv entry. For Install over exec:cmd they
	// are joined and single-quoted as one argument; InstallCreate appends
	// them as separate, unquoted words on every transport.
	ExtraArgs []string
	// Reinstall adds -r, replacing an existing application.
	Reinstall bool
}

// InstallResult is the parsed outcome of an install. Success is true iff
// the device's reply, after trimming, begins with "Success"; Output
// carries the full reply for diagnostics, since a false Success may still
// deserve surfacing to the user.
type InstallResult struct {
	Success bool
	Output  string
}

// InstallSession identifies a multi-APK staging transaction created with
// install-create and finalized with install-commit.
type InstallSession struct {
	ID string
}

// installTransport is the selected command transport for an install.
type installTransport int

const (
	transportAbbExec installTransport = iota
	transportCmd
	transportPm
)

// selectInstallTransport picks the install command transport, first match
// wins: abb_exec, then cmd, then the legacy pm fallback.
func selectInstallTransport(features FeatureSet) installTransport {
	switch {
	case features.Supports(FeatureAbbExec):
		return transportAbbExec
	case features.Supports(FeatureCmd):
		return transportCmd
	default:
		return transportPm
	}
}

// quoteShellArg single-quotes s for embedding in an exec:cmd line,
// backslash-escaping embedded single quotes.
func quoteShellArg(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// abbPayload builds an abb_exec control payload from NUL-separated argv.
func abbPayload(argv []string) string {
	return "abb_exec:" + strings.Join(argv, "\x00")
}

// execPayload builds an exec control payload from space-joined words.
func execPayload(words []string) string {
	return "exec:" + strings.Join(words, " ")
}

// installRequest is the single-shot package install. It requires cmd or
// abb_exec; the legacy pm fallback exists only for the multi-session
// write path.
type installRequest struct {
	path     string
	target   Target
	features FeatureSet
	opts     InstallOptions

	// Populated by Validate from the local file.
	size int64
	apex bool
}

func (r *installRequest) Validate() ValidationResponse {
	fi, err := os.Stat(r.path)
	if err != nil {
		return Invalid(fmt.Sprintf("stat %s: %v", r.path, err))
	}
	if !fi.Mode().IsRegular() {
		return Invalid(fmt.Sprintf("%s is not a regular file", r.path))
	}
	r.size = fi.Size()

	switch ext := strings.TrimPrefix(filepath.Ext(r.path), "."); ext {
	case "apk":
	case "apex":
		if !r.features.Supports(FeatureApex) {
			return Invalid("device does not support apex packages")
		}
		r.apex = true
	default:
		return Invalid(fmt.Sprintf("unsupported package extension %q", ext))
	}

	if !r.features.Supports(FeatureCmd) && !r.features.Supports(FeatureAbbExec) {
		return Invalid("device supports neither cmd nor abb_exec")
	}
	return Valid()
}

func (r *installRequest) Target() Target { return r.target }

func (r *installRequest) Serialize() []byte {
	size := strconv.FormatInt(r.size, 10)
	if selectInstallTransport(r.features) == transportAbbExec {
		argv := []string{"package", "install"}
		argv = append(argv, r.opts.ExtraArgs...)
		if r.opts.Reinstall {
			argv = append(argv, "-r")
		}
		argv = append(argv, "-S", size)
		if r.apex {
			argv = append(argv, "--apex")
		}
		return frameControl(abbPayload(argv))
	}

	words := []string{"cmd", "package", "install"}
	if len(r.opts.ExtraArgs) > 0 {
		words = append(words, quoteShellArg(strings.Join(r.opts.ExtraArgs, " ")))
	}
	if r.opts.Reinstall {
		words = append(words, "-r")
	}
	words = append(words, "-S", size)
	if r.apex {
		words = append(words, "--apex")
	}
	return frameControl(execPayload(words))
}

func (r *installRequest) RequiredFeatures() []Feature {
	feats := []Feature{FeatureCmd, FeatureAbbExec}
	if r.apex {
		feats = append(feats, FeatureApex)
	}
	return feats
}

// Install streams the package at path to the device and installs it,
// selecting abb_exec or exec:cmd by the feature snapshot. Progress covers
// the payload upload; the device's textual verdict arrives only after the
// whole payload has been read.
func (c *Client) Install(ctx context.Context, target Target, path string, features FeatureSet, opts InstallOptions, progress func(float64)) (InstallResult, error) {
	req := &installRequest{path: path, target: target, features: features, opts: opts}
	t, err := c.submit(ctx, req)
	if err != nil {
		return InstallResult{}, err
	}
	defer t.Close()

	f, err := os.Open(path)
	if err != nil {
		return InstallResult{}, fmt.Errorf("adb: open %s: %w", path, err)
	}
	defer f.Close()

	if err := streamPayload(ctx, t, f, req.size, progress); err != nil {
		return InstallResult{}, err
	}

	output, err := readUntilEOF(ctx, t)
	if err != nil {
		return InstallResult{}, err
	}
	result := parseInstallOutput(output)
	c.logger.Debug("install finished", "path", path, "success", result.Success)
	return result, nil
}

// streamPayload copies size bytes from src to the transport in 64 KiB
// chunks, then half-closes the write side to signal EOF to the device.
func streamPayload(ctx context.Context, t wire.Transport, src io.Reader, size int64, progress func(float64)) error {
	if size == 0 && progress != nil {
		progress(1.0)
	}
	src = io.LimitReader(src, size)
	buf := make([]byte, installChunkSize)
	var sent int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := t.WriteAll(ctx, buf[:n]); werr != nil {
				return werr
			}
			sent += int64(n)
			if progress != nil && size > 0 {
				progress(min(float64(sent)/float64(size), 1.0))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("adb: read package payload: %w", err)
		}
	}
	if hc, ok := t.(wire.HalfCloser); ok {
		if err := hc.CloseWrite(); err != nil {
			return fmt.Errorf("%w: close write side: %w", wire.ErrWriteFailed, err)
		}
	}
	if progress != nil {
		progress(1.0)
	}
	return nil
}

// readUntilEOF drains the read side into a UTF-8 buffer.
func readUntilEOF(ctx context.Context, t wire.Transport) (string, error) {
	var out bytes.Buffer
	buf := make([]byte, 4096)
	for {
		n, err := t.ReadAvailable(ctx, buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err == io.EOF {
			return out.String(), nil
		}
		if err != nil {
			return out.String(), err
		}
	}
}

// parseInstallOutput applies the package manager's reply convention: a
// trimmed reply beginning with "Success" is success, anything else is
// failure. A reply whose success line is preceded by other output is
// therefore classified as failure; the raw output is preserved for the
// caller.
func parseInstallOutput(output string) InstallResult {
	return InstallResult{
		Success: strings.HasPrefix(strings.TrimSpace(output), "Success"),
		Output:  output,
	}
}

// sessionIDPattern extracts the id from "Success: created install session [NNN]".
var sessionIDPattern = regexp.MustCompile(`\[(\w+)\]`)

// multiSessionRequest covers the install-create and install-commit
// control requests, which differ only in trailing arguments. Unlike the
// single-shot install, the legacy pm transport is a valid fallback here.
type multiSessionRequest struct {
	target   Target
	features FeatureSet
	args     []string
}

func (r multiSessionRequest) Validate() ValidationResponse { return Valid() }
func (r multiSessionRequest) Target() Target               { return r.target }

func (r multiSessionRequest) Serialize() []byte {
	switch selectInstallTransport(r.features) {
	case transportAbbExec:
		return frameControl(abbPayload(append([]string{"package"}, r.args...)))
	case transportCmd:
		return frameControl(execPayload(append([]string{"cmd", "package"}, r.args...)))
	default:
		return frameControl(execPayload(append([]string{"pm"}, r.args...)))
	}
}

func (r multiSessionRequest) RequiredFeatures() []Feature { return nil }

// InstallCreate opens a multi-APK staging session and returns its id.
func (c *Client) InstallCreate(ctx context.Context, target Target, features FeatureSet, opts InstallOptions) (InstallSession, error) {
	args := []string{"install-create"}
	if opts.Reinstall {
		args = append(args, "-r")
	}
	args = append(args, opts.ExtraArgs...)

	t, err := c.submit(ctx, multiSessionRequest{target: target, features: features, args: args})
	if err != nil {
		return InstallSession{}, err
	}
	defer t.Close()

	output, err := readUntilEOF(ctx, t)
	if err != nil {
		return InstallSession{}, err
	}
	if !parseInstallOutput(output).Success {
		return InstallSession{}, fmt.Errorf("%w: %s", wire.ErrRequestRejected, strings.TrimSpace(output))
	}
	m := sessionIDPattern.FindStringSubmatch(output)
	if m == nil {
		return InstallSession{}, fmt.Errorf("%w: no session id in %q", ErrMalformedResponse, output)
	}
	return InstallSession{ID: m[1]}, nil
}

// installWriteRequest stages one APK into an open session. The trailing
// "-" marks stdin: the device reads size payload bytes off the socket.
type installWriteRequest struct {
	target   Target
	features FeatureSet
	session  InstallSession
	name     string
	size     int64
}

func (r installWriteRequest) Validate() ValidationResponse {
	if r.session.ID == "" {
		return Invalid("install session id must not be empty")
	}
	if r.name == "" {
		return Invalid("apk name must not be empty")
	}
	if r.size < 0 {
		return Invalid("apk size must not be negative")
	}
	return Valid()
}

func (r installWriteRequest) Target() Target { return r.target }

func (r installWriteRequest) Serialize() []byte {
	size := strconv.FormatInt(r.size, 10)
	args := []string{"install-write", "-S", size, r.session.ID, r.name, "-"}
	switch selectInstallTransport(r.features) {
	case transportAbbExec:
		return frameControl(abbPayload(append([]string{"package"}, args...)))
	case transportCmd:
		return frameControl(execPayload(append([]string{"cmd", "package"}, args...)))
	default:
		return frameControl(execPayload(append([]string{"pm"}, args...)))
	}
}

func (r installWriteRequest) RequiredFeatures() []Feature { return nil }

// InstallWrite streams one APK of a multi-session install, reading size
// bytes from src. A non-Success reply rejects the write; the caller must
// not commit the session after a failed write.
func (c *Client) InstallWrite(ctx context.Context, target Target, features FeatureSet, session InstallSession, name string, size int64, src io.Reader, progress func(float64)) error {
	req := installWriteRequest{target: target, features: features, session: session, name: name, size: size}
	t, err := c.submit(ctx, req)
	if err != nil {
		return err
	}
	defer t.Close()

	if err := streamPayload(ctx, t, src, size, progress); err != nil {
		return err
	}

	output, err := readUntilEOF(ctx, t)
	if err != nil {
		return err
	}
	if !parseInstallOutput(output).Success {
		return fmt.Errorf("%w: %s", wire.ErrRequestRejected, strings.TrimSpace(output))
	}
	return nil
}

// InstallCommit finalizes a multi-APK staging session.
func (c *Client) InstallCommit(ctx context.Context, target Target, features FeatureSet, session InstallSession) error {
	t, err := c.submit(ctx, multiSessionRequest{
		target:   target,
		features: features,
		args:     []string{"install-commit", session.ID},
	})
	if err != nil {
		return err
	}
	defer t.Close()

	output, err := readUntilEOF(ctx, t)
	if err != nil {
		return err
	}
	if !parseInstallOutput(output).Success {
		return fmt.Errorf("%w: %s", wire.ErrRequestRejected, strings.TrimSpace(output))
	}
	return nil
}
