// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package filesync implements the adb sync sub-protocol: the 8-byte header
// framing and the stat, pull, push, and directory-listing state machines
// that run over it. A sync session monopolizes its transport from the
// moment the control channel acknowledged "sync:" until DONE or FAIL.
package filesync

import "errors"

// Sentinel errors for the filesync package.
var (
	// ErrUnsupportedSyncProtocol indicates an unknown, out-of-place, or
	// oversized sync header. The socket is poisoned once this is returned.
	ErrUnsupportedSyncProtocol = errors.New("filesync: unsupported sync protocol")

	// ErrPullFailed indicates the device replied FAIL during a pull.
	ErrPullFailed = errors.New("filesync: pull failed")

	// ErrPushFailed indicates the device replied FAIL after a push.
	ErrPushFailed = errors.New("filesync: push failed")

	// ErrListFailed indicates the device replied FAIL during a directory listing.
	ErrListFailed = errors.New("filesync: list failed")

	// ErrPathTooLong indicates a remote path exceeds MaxPathLength bytes.
	ErrPathTooLong = errors.New("filesync: remote path too long")
)
