// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

// Package papertape decodes PDP-8 paper-tape byte streams captured from
// a high-speed reader.
//
// A tape arrives as a stream of 8-bit frames. The top two bits of each
// frame classify it: data, origin (load address), leader/trailer, or
// field setting. This package provides the per-byte capture state
// machine for the RIM, BIN, and raw formats, session statistics, and a
// CBOR transcript codec for recording and replaying capture sessions.
package papertape

import (
	"fmt"
	"strings"
)

// Control byte classification. The top two bits of every tape frame
// select the class; the remaining six bits carry data.
const (
	ControlMask = 0xC0
	DataMask    = 0x3F
	FieldMask   = 0x1C
)

// Class values as they appear in the masked byte
const (
	DataClass   = 0x00 // 0x00-0x3F
	OriginClass = 0x40 // 0x40-0x7F
	LeaderClass = 0x80 // 0x80-0xBF
	FieldClass  = 0xC0 // 0xC0-0xFF
)

// Tape framing
const (
	LeaderByte   = 0x80   // the canonical leader/trailer punch
	WordMask     = 0o7777 // 12-bit word / checksum modulus
	MinLeadIn    = 7      // a leader run must exceed this to count
	LeaderLength = 16     // synthesized leader length in raw mode
)

// ByteClass identifies the control class of a tape frame
type ByteClass int

// Byte class values
const (
	ClassData ByteClass = iota
	ClassOrigin
	ClassLeader
	ClassField
)

// ClassifyByte returns the control class of a tape frame
func ClassifyByte(b byte) ByteClass {
	switch b & ControlMask {
	case OriginClass:
		return ClassOrigin
	case LeaderClass:
		return ClassLeader
	case FieldClass:
		return ClassField
	default:
		return ClassData
	}
}

// String returns the class name
func (c ByteClass) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassOrigin:
		return "origin"
	case ClassLeader:
		return "leader"
	case ClassField:
		return "field"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// State identifies the decoder's position in a capture session
type State int

// Decoder states
const (
	StateStart State = iota
	StateLeadIn
	StateDataHigh
	StateDataLow
	StateTrailer
	StateDone
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateStart:
		return "START"
	case StateLeadIn:
		return "LEAD_IN"
	case StateDataHigh:
		return "DATA_HIGH"
	case StateDataLow:
		return "DATA_LOW"
	case StateTrailer:
		return "TRAIL"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("STATE(%d)", int(s))
	}
}

// Format selects the capture variant. It is fixed when the decoder is
// constructed.
type Format int

// Capture formats
const (
	FormatRaw Format = iota
	FormatRim
	FormatBin
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatRim:
		return "rim"
	case FormatBin:
		return "bin"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat parses a format name as accepted on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "raw":
		return FormatRaw, nil
	case "rim":
		return FormatRim, nil
	case "bin":
		return FormatBin, nil
	default:
		return FormatRaw, fmt.Errorf("unknown tape format %q (want raw, rim, or bin)", name)
	}
}
