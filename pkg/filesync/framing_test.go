// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package filesync

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/evant/adbc/pkg/wire"
)

func TestPutHeader(t *testing.T) {
	buf := make([]byte, HeaderSize)
	PutHeader(buf, TagData, 1024)

	if got := string(buf[:4]); got != "DATA" {
		t.Errorf("tag = %q, want %q", got, "DATA")
	}
	if got := binary.LittleEndian.Uint32(buf[4:]); got != 1024 {
		t.Errorf("arg = %d, want 1024", got)
	}
}

func TestDecodeHeader_RoundTrip(t *testing.T) {
	for _, tc := range []struct {
		tag string
		arg uint32
	}{
		{TagStat, 0},
		{TagLstat, 11},
		{TagData, MaxFilePacketLength},
		{TagDone, 1700000000},
		{TagFail, 17},
	} {
		hdr := AppendHeader(nil, tc.tag, tc.arg)
		tag, arg, err := DecodeHeader(hdr)
		if err != nil {
			t.Fatalf("DecodeHeader(%s) error = %v", tc.tag, err)
		}
		if tag != tc.tag || arg != tc.arg {
			t.Errorf("DecodeHeader(%s, %d) = %s, %d", tc.tag, tc.arg, tag, arg)
		}
	}
}

func TestDecodeHeader_UnknownTag(t *testing.T) {
	hdr := append([]byte("NOPE"), 0, 0, 0, 0)
	if _, _, err := DecodeHeader(hdr); !errors.Is(err, wire.ErrUnexpectedTag) {
		t.Errorf("expected ErrUnexpectedTag, got %v", err)
	}
}

func TestDecodeHeader_ShortHeader(t *testing.T) {
	if _, _, err := DecodeHeader([]byte("DATA")); !errors.Is(err, wire.ErrMalformedFrame) {
		t.Errorf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestAppendHeader_LittleEndian(t *testing.T) {
	// Sync lengths are little-endian, unlike the control channel's
	// big-endian ASCII hex. 0x00000476 on the wire is 76 04 00 00.
	hdr := AppendHeader(nil, TagData, 0x476)
	if !bytes.Equal(hdr[4:], []byte{0x76, 0x04, 0x00, 0x00}) {
		t.Errorf("length bytes = % x, want 76 04 00 00", hdr[4:])
	}
}
