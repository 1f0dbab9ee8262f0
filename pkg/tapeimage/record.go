// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

// Package tapeimage walks captured paper-tape images record by record.
//
// Where package papertape decodes a live byte stream, this package
// analyzes a finished image: it pairs frames into 12-bit words, tracks
// origin and field settings, coalesces leader runs, and re-verifies
// the punched checksum of bin tapes.
package tapeimage

import (
	"github.com/tapeworks/tapecat/pkg/papertape"
)

// RecordKind identifies what a scanned record represents
type RecordKind int

// Record kinds
const (
	RecordLeader RecordKind = iota
	RecordOrigin
	RecordWord
	RecordField
	RecordChecksum
)

// String returns the record kind name
func (k RecordKind) String() string {
	switch k {
	case RecordLeader:
		return "leader"
	case RecordOrigin:
		return "origin"
	case RecordWord:
		return "word"
	case RecordField:
		return "field"
	case RecordChecksum:
		return "checksum"
	default:
		return "unknown"
	}
}

// Record is one scanned element of a tape image
type Record struct {
	Kind   RecordKind
	Offset int // byte offset of the record in the image

	Count int    // leader: run length in bytes
	Field int    // field: field number
	Word  uint16 // origin address, data word, or received checksum
	Sum   uint16 // running checksum after this record

	// Checksum records only
	Computed uint16
	OK       bool
}

// Summary totals one scanned image
type Summary struct {
	Bytes       int
	LeaderBytes int
	Origins     int
	Words       int
	Fields      int

	HasChecksum bool
	ChecksumOK  bool
	Computed    uint16
	Received    uint16
}

// pairWord packs a frame pair into a 12-bit word
func pairWord(hi, lo byte) uint16 {
	return uint16(hi&papertape.DataMask)<<6 | uint16(lo&papertape.DataMask)
}
