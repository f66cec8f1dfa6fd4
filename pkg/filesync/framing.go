// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package filesync

import (
	"encoding/binary"
	"fmt"

	"github.com/evant/adbc/pkg/wire"
)

const (
	// HeaderSize is the fixed size of every sync frame header: a 4-byte
	// ASCII tag followed by a little-endian uint32 whose meaning depends
	// on the tag (path length, chunk length, file mode, mtime, or error
	// length).
	HeaderSize = 8

	// MaxFilePacketLength caps a single DATA chunk at 64 KiB. Receiving a
	// larger chunk is a protocol error.
	MaxFilePacketLength = 64 * 1024

	// MaxPathLength caps remote paths at 1024 bytes of UTF-8.
	MaxPathLength = 1024
)

// Sync frame tags.
const (
	TagStat  = "STAT"
	TagLstat = "LSTA"
	TagRecv  = "RECV"
	TagSend  = "SEND"
	TagData  = "DATA"
	TagDone  = "DONE"
	TagOkay  = "OKAY"
	TagFail  = "FAIL"
	TagList  = "LIST"
	TagDent  = "DENT"
)

var knownTags = map[string]bool{
	TagStat:  true,
	TagLstat: true,
	TagRecv:  true,
	TagSend:  true,
	TagData:  true,
	TagDone:  true,
	TagOkay:  true,
	TagFail:  true,
	TagList:  true,
	TagDent:  true,
}

// PutHeader writes an 8-byte sync header into dst[0:HeaderSize]. Unlike the
// control channel's big-endian ASCII hex lengths, the integer field is
// little-endian; the two framings are never unified.
func PutHeader(dst []byte, tag string, arg uint32) {
	copy(dst[:4], tag)
	binary.LittleEndian.PutUint32(dst[4:HeaderSize], arg)
}

// AppendHeader appends an 8-byte sync header to dst and returns the
// extended slice.
func AppendHeader(dst []byte, tag string, arg uint32) []byte {
	var hdr [HeaderSize]byte
	PutHeader(hdr[:], tag, arg)
	return append(dst, hdr[:]...)
}

// DecodeHeader parses an 8-byte sync header into its tag and integer
// field. A tag outside the known set fails with wire.ErrUnexpectedTag.
func DecodeHeader(hdr []byte) (string, uint32, error) {
	if len(hdr) != HeaderSize {
		return "", 0, fmt.Errorf("%w: sync header must be %d bytes, got %d", wire.ErrMalformedFrame, HeaderSize, len(hdr))
	}
	tag := string(hdr[:4])
	if !knownTags[tag] {
		return "", 0, fmt.Errorf("%w: sync tag %q", wire.ErrUnexpectedTag, tag)
	}
	return tag, binary.LittleEndian.Uint32(hdr[4:]), nil
}
