// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package filesync

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/evant/adbc/pkg/wire"
)

// FileEntry is the stat triple returned by LSTAT.
type FileEntry struct {
	Mode  uint32
	Size  uint32
	Mtime uint32
}

// DirEntry is one record of a LIST response.
type DirEntry struct {
	Name  string
	Mode  uint32
	Size  uint32
	Mtime uint32
}

// Session drives the sync sub-protocol over a transport whose control
// channel already acknowledged "sync:". Exactly one sync operation runs at
// a time per session; the transport is not shared with any other request
// until the session closes.
//
// The session owns a single reusable buffer sized for an 8-byte header
// plus a maximum DATA payload, so streaming never allocates per chunk and
// header plus payload go out in one write.
type Session struct {
	t      wire.Transport
	buf    []byte
	logger *slog.Logger
}

// NewSession wraps a transport that has entered sync mode.
func NewSession(t wire.Transport, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		t:      t,
		buf:    make([]byte, HeaderSize+MaxFilePacketLength),
		logger: logger.With("component", "sync"),
	}
}

// Close closes the underlying transport. A sync session is single-use;
// closing it poisons nothing because nothing else may share the socket.
func (s *Session) Close() error {
	return s.t.Close()
}

// writeRequest sends one path-carrying sync request (LSTA, RECV, SEND,
// LIST) as a single write: header and path share the session buffer.
func (s *Session) writeRequest(ctx context.Context, tag, arg string) error {
	if len(arg) > MaxPathLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPathTooLong, len(arg), MaxPathLength)
	}
	PutHeader(s.buf, tag, uint32(len(arg)))
	n := copy(s.buf[HeaderSize:], arg)
	return s.t.WriteAll(ctx, s.buf[:HeaderSize+n])
}

// readHeader reads and decodes one 8-byte sync header. Decode failures are
// wrapped in ErrUnsupportedSyncProtocol since at this point the stream is
// mid-session and unrecoverable.
func (s *Session) readHeader(ctx context.Context) (string, uint32, error) {
	var hdr [HeaderSize]byte
	if err := s.t.ReadExact(ctx, hdr[:]); err != nil {
		return "", 0, err
	}
	tag, arg, err := DecodeHeader(hdr[:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrUnsupportedSyncProtocol, err)
	}
	return tag, arg, nil
}

// readError consumes a FAIL frame's length-prefixed message.
func (s *Session) readError(ctx context.Context, n uint32) (string, error) {
	msg := make([]byte, n)
	if err := s.t.ReadExact(ctx, msg); err != nil {
		return "", err
	}
	return string(msg), nil
}

// Lstat stats a remote path without following symlinks. A zero size is
// valid; it describes an empty file.
func (s *Session) Lstat(ctx context.Context, path string) (FileEntry, error) {
	if err := s.writeRequest(ctx, TagLstat, path); err != nil {
		return FileEntry{}, err
	}
	var resp [16]byte
	if err := s.t.ReadExact(ctx, resp[:]); err != nil {
		return FileEntry{}, err
	}
	if tag := string(resp[:4]); tag != TagLstat {
		return FileEntry{}, fmt.Errorf("%w: stat response tag %q", ErrUnsupportedSyncProtocol, tag)
	}
	return FileEntry{
		Mode:  binary.LittleEndian.Uint32(resp[4:8]),
		Size:  binary.LittleEndian.Uint32(resp[8:12]),
		Mtime: binary.LittleEndian.Uint32(resp[12:16]),
	}, nil
}

// Pull streams a remote file into sink, reporting progress in [0.0, 1.0]
// after every chunk and a terminal 1.0 on DONE. The remote file is stated
// first so the total size is known; progress for a zero-length file is 1.0
// directly. On failure any bytes already written to sink are left in
// place; deleting partial output is the caller's policy.
func (s *Session) Pull(ctx context.Context, path string, sink io.Writer, progress func(float64)) error {
	ent, err := s.Lstat(ctx, path)
	if err != nil {
		return err
	}
	total := ent.Size

	if err := s.writeRequest(ctx, TagRecv, path); err != nil {
		return err
	}

	var pos uint64
	for {
		tag, arg, err := s.readHeader(ctx)
		if err != nil {
			return err
		}
		switch tag {
		case TagData:
			if arg > MaxFilePacketLength {
				return fmt.Errorf("%w: data chunk %d exceeds %d", ErrUnsupportedSyncProtocol, arg, MaxFilePacketLength)
			}
			chunk := s.buf[:arg]
			if err := s.t.ReadExact(ctx, chunk); err != nil {
				return err
			}
			if _, err := sink.Write(chunk); err != nil {
				return fmt.Errorf("filesync: write local sink: %w", err)
			}
			pos += uint64(arg)
			if progress != nil {
				if total == 0 {
					progress(1.0)
				} else {
					progress(min(float64(pos)/float64(total), 1.0))
				}
			}
		case TagDone:
			if progress != nil {
				progress(1.0)
			}
			s.logger.Debug("pull complete", "path", path, "bytes", pos)
			return nil
		case TagFail:
			msg, err := s.readError(ctx, arg)
			if err != nil {
				return err
			}
			return fmt.Errorf("%w: %s: %s", ErrPullFailed, path, msg)
		default:
			return fmt.Errorf("%w: tag %q during pull", ErrUnsupportedSyncProtocol, tag)
		}
	}
}

// Push streams src to a remote path. The remote argument carries the file
// mode as "<path>,<mode>" with the permission bits rendered decimal per
// adb convention. total is the source size in bytes used for progress; a
// zero total reports 1.0 immediately and proceeds straight to DONE. The
// DONE frame carries the source mtime truncated to whole seconds.
func (s *Session) Push(ctx context.Context, path string, mode fs.FileMode, mtime time.Time, src io.Reader, total int64, progress func(float64)) error {
	arg := fmt.Sprintf("%s,%d", path, uint32(mode.Perm()))
	if len(path) > MaxPathLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrPathTooLong, len(path), MaxPathLength)
	}
	if err := s.writeRequest(ctx, TagSend, arg); err != nil {
		return err
	}

	if total == 0 && progress != nil {
		progress(1.0)
	}

	var sent int64
	for {
		n, err := src.Read(s.buf[HeaderSize : HeaderSize+MaxFilePacketLength])
		if n > 0 {
			PutHeader(s.buf, TagData, uint32(n))
			if werr := s.t.WriteAll(ctx, s.buf[:HeaderSize+n]); werr != nil {
				return werr
			}
			sent += int64(n)
			if progress != nil && total > 0 {
				progress(min(float64(sent)/float64(total), 1.0))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("filesync: read local source: %w", err)
		}
	}

	PutHeader(s.buf, TagDone, uint32(mtime.Unix()))
	if err := s.t.WriteAll(ctx, s.buf[:HeaderSize]); err != nil {
		return err
	}

	tag, arg32, err := s.readHeader(ctx)
	if err != nil {
		return err
	}
	switch tag {
	case TagOkay:
		if progress != nil {
			progress(1.0)
		}
		s.logger.Debug("push complete", "path", path, "bytes", sent)
		return nil
	case TagFail:
		msg, err := s.readError(ctx, arg32)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", ErrPushFailed, msg)
	default:
		return fmt.Errorf("%w: tag %q after push", ErrUnsupportedSyncProtocol, tag)
	}
}

// List streams the entries of a remote directory, invoking emit for each
// DENT record until DONE. Returns the number of entries seen.
func (s *Session) List(ctx context.Context, path string, emit func(DirEntry)) (int, error) {
	if err := s.writeRequest(ctx, TagList, path); err != nil {
		return 0, err
	}

	count := 0
	for {
		tag, arg, err := s.readHeader(ctx)
		if err != nil {
			return count, err
		}
		switch tag {
		case TagDent:
			// DENT layout after the tag: mode, size, mtime, namelen, name.
			// The header's integer field is the mode; the remaining three
			// fields follow as little-endian uint32s.
			var rest [12]byte
			if err := s.t.ReadExact(ctx, rest[:]); err != nil {
				return count, err
			}
			nameLen := binary.LittleEndian.Uint32(rest[8:12])
			if nameLen > MaxPathLength {
				return count, fmt.Errorf("%w: dent name %d bytes exceeds %d", ErrUnsupportedSyncProtocol, nameLen, MaxPathLength)
			}
			name := make([]byte, nameLen)
			if err := s.t.ReadExact(ctx, name); err != nil {
				return count, err
			}
			count++
			if emit != nil {
				emit(DirEntry{
					Name:  string(name),
					Mode:  arg,
					Size:  binary.LittleEndian.Uint32(rest[0:4]),
					Mtime: binary.LittleEndian.Uint32(rest[4:8]),
				})
			}
		case TagDone:
			return count, nil
		case TagFail:
			msg, err := s.readError(ctx, arg)
			if err != nil {
				return count, err
			}
			return count, fmt.Errorf("%w: %s: %s", ErrListFailed, path, msg)
		default:
			return count, fmt.Errorf("%w: tag %q during list", ErrUnsupportedSyncProtocol, tag)
		}
	}
}
