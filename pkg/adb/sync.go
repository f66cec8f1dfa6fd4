// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package adb

import (
	"context"
	"fmt"
	"os"

	"github.com/evant/adbc/pkg/filesync"
)

type syncRequest struct {
	target Target
}

func (r syncRequest) Validate() ValidationResponse {
	if r.target.IsHost() {
		return Invalid("sync requires a device target")
	}
	return Valid()
}

func (r syncRequest) Target() Target              { return r.target }
func (r syncRequest) Serialize() []byte           { return frameControl("sync:") }
func (r syncRequest) RequiredFeatures() []Feature { return nil }

// Sync enters sync mode on a fresh connection and returns the session.
// The session monopolizes its connection; the caller closes it when done.
func (c *Client) Sync(ctx context.Context, target Target) (*filesync.Session, error) {
	t, err := c.submit(ctx, syncRequest{target: target})
	if err != nil {
		return nil, err
	}
	return filesync.NewSession(t, c.logger), nil
}

// Lstat stats remotePath on the device.
func (c *Client) Lstat(ctx context.Context, target Target, remotePath string) (filesync.FileEntry, error) {
	s, err := c.Sync(ctx, target)
	if err != nil {
		return filesync.FileEntry{}, err
	}
	defer s.Close()
	return s.Lstat(ctx, remotePath)
}

// Pull copies remotePath from the device into localPath, reporting
// progress in [0.0, 1.0]. The local file is created before any remote
// I/O so permission problems surface early. On failure the partial file
// is left in place; deleting it is the caller's policy.
func (c *Client) Pull(ctx context.Context, target Target, remotePath, localPath string, progress func(float64)) error {
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrRequestValidation, localPath, err)
	}
	defer f.Close()

	s, err := c.Sync(ctx, target)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Pull(ctx, remotePath, f, progress)
}

// Push copies localPath to remotePath on the device, carrying the local
// file's permission bits and mtime (truncated to whole seconds).
func (c *Client) Push(ctx context.Context, target Target, localPath, remotePath string, progress func(float64)) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrRequestValidation, localPath, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrRequestValidation, localPath, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrRequestValidation, localPath)
	}

	s, err := c.Sync(ctx, target)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Push(ctx, remotePath, fi.Mode(), fi.ModTime(), f, fi.Size(), progress)
}

// List enumerates the entries of a remote directory, invoking emit per
// entry and returning the count.
func (c *Client) List(ctx context.Context, target Target, remoteDir string, emit func(filesync.DirEntry)) (int, error) {
	s, err := c.Sync(ctx, target)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return s.List(ctx, remoteDir, emit)
}
