// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package papertape

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

// ============================================================
// Byte Classification Tests
// ============================================================

func TestClassifyByte(t *testing.T) {
	tests := []struct {
		b        byte
		expected ByteClass
	}{
		{0x00, ClassData},
		{0x3F, ClassData},
		{0x40, ClassOrigin},
		{0x41, ClassOrigin},
		{0x7F, ClassOrigin},
		{0x80, ClassLeader},
		{0xBF, ClassLeader},
		{0xC0, ClassField},
		{0xC8, ClassField},
		{0xFF, ClassField},
	}

	for _, tt := range tests {
		if got := ClassifyByte(tt.b); got != tt.expected {
			t.Errorf("ClassifyByte(0x%02X) = %v, want %v", tt.b, got, tt.expected)
		}
	}
}

func TestByteClassString(t *testing.T) {
	tests := []struct {
		class    ByteClass
		expected string
	}{
		{ClassData, "data"},
		{ClassOrigin, "origin"},
		{ClassLeader, "leader"},
		{ClassField, "field"},
		{ByteClass(99), "class(99)"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.expected {
			t.Errorf("ByteClass(%d).String() = %q, want %q", int(tt.class), got, tt.expected)
		}
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateStart, "START"},
		{StateLeadIn, "LEAD_IN"},
		{StateDataHigh, "DATA_HIGH"},
		{StateDataLow, "DATA_LOW"},
		{StateTrailer, "TRAIL"},
		{StateDone, "DONE"},
		{State(42), "STATE(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.state), got, tt.expected)
		}
	}
}

// ============================================================
// Format Tests
// ============================================================

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		expected Format
	}{
		{"raw", FormatRaw},
		{"rim", FormatRim},
		{"bin", FormatBin},
		{"BIN", FormatBin},
		{"Rim", FormatRim},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.name, got, tt.expected)
		}
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	_, err := ParseFormat("ascii")
	if err == nil {
		t.Error("Expected error for unknown format name")
	}
	if !strings.Contains(err.Error(), "ascii") {
		t.Errorf("Error should name the bad format: %v", err)
	}
}

func TestFormatString_RoundTrip(t *testing.T) {
	for _, f := range []Format{FormatRaw, FormatRim, FormatBin} {
		parsed, err := ParseFormat(f.String())
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", f.String(), err)
			continue
		}
		if parsed != f {
			t.Errorf("ParseFormat(%q) = %v, want %v", f.String(), parsed, f)
		}
	}
}

// ============================================================
// Verdict Tests
// ============================================================

func TestVerdictString(t *testing.T) {
	ok := &Verdict{OK: true, Computed: 0o104, Received: 0o104}
	if got := ok.String(); got != "Checksum OK!: 0104" {
		t.Errorf("OK verdict = %q, want %q", got, "Checksum OK!: 0104")
	}

	fail := &Verdict{OK: false, Computed: 0o105, Received: 0o104}
	if got := fail.String(); got != "Checksum FAIL!: calc 0105 <-> recv 0104" {
		t.Errorf("FAIL verdict = %q, want %q", got, "Checksum FAIL!: calc 0105 <-> recv 0104")
	}
}

func TestVerdictString_WideValues(t *testing.T) {
	// Four octal digits cover the full 12-bit range without padding
	v := &Verdict{OK: true, Received: 0o7777}
	if got := v.String(); got != "Checksum OK!: 7777" {
		t.Errorf("Verdict = %q, want %q", got, "Checksum OK!: 7777")
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Counters(t *testing.T) {
	s := NewStatistics()

	s.Update(64, 60)
	s.Update(32, 32)
	s.RecordIdle()
	s.RecordVerdict(&Verdict{OK: true})
	s.RecordVerdict(&Verdict{OK: false})
	s.RecordVerdict(nil)

	if s.Polls != 3 {
		t.Errorf("Polls = %d, want 3", s.Polls)
	}
	if s.IdlePolls != 1 {
		t.Errorf("IdlePolls = %d, want 1", s.IdlePolls)
	}
	if s.BytesRead != 96 {
		t.Errorf("BytesRead = %d, want 96", s.BytesRead)
	}
	if s.BytesEmitted != 92 {
		t.Errorf("BytesEmitted = %d, want 92", s.BytesEmitted)
	}
	if s.ChecksumOK != 1 || s.ChecksumFail != 1 {
		t.Errorf("Verdict counts = %d/%d, want 1/1", s.ChecksumOK, s.ChecksumFail)
	}
}

func TestStatistics_String(t *testing.T) {
	s := NewStatistics()
	s.Update(100, 90)
	s.RecordVerdict(&Verdict{OK: true})

	out := s.String()
	for _, want := range []string{
		"=== Capture statistics",
		"Polls:",
		"Bytes Read:",
		"Bytes Emitted:",
		"Checksum OK:",
		"Byte Rate:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Statistics output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Checksum FAIL:") {
		t.Error("FAIL line should be omitted when no checksum failed")
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.Update(10, 10)
	s.RecordIdle()
	s.RecordVerdict(&Verdict{OK: false})
	s.CalculateRates()

	s.Reset()
	if s.Polls != 0 || s.IdlePolls != 0 || s.BytesRead != 0 || s.BytesEmitted != 0 {
		t.Error("Reset should clear counters")
	}
	if s.ChecksumOK != 0 || s.ChecksumFail != 0 {
		t.Error("Reset should clear verdict counts")
	}
	if s.ByteRate != 0 || s.EmitRate != 0 {
		t.Error("Reset should clear rates")
	}
}

// ============================================================
// Transcript Tests
// ============================================================

func TestTranscript_RoundTrip(t *testing.T) {
	var buf bytes.Buffer

	rec, err := NewRecorder(&buf, FormatBin, "Serial: /dev/ttyUSB0 @ 1200 baud")
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}
	if err := rec.RecordChunk([]byte{0x80, 0x80, 0x41}); err != nil {
		t.Fatalf("RecordChunk error: %v", err)
	}
	if err := rec.RecordChunk([]byte{0x01, 0x02}); err != nil {
		t.Fatalf("RecordChunk error: %v", err)
	}
	if err := rec.RecordIdle(); err != nil {
		t.Fatalf("RecordIdle error: %v", err)
	}

	tr, err := OpenTranscript(&buf)
	if err != nil {
		t.Fatalf("OpenTranscript error: %v", err)
	}
	header := tr.Header()
	if header.Version != TranscriptVersion {
		t.Errorf("Version = %d, want %d", header.Version, TranscriptVersion)
	}
	if header.Format != "bin" {
		t.Errorf("Format = %q, want %q", header.Format, "bin")
	}
	if header.Source != "Serial: /dev/ttyUSB0 @ 1200 baud" {
		t.Errorf("Source = %q", header.Source)
	}
	if header.Started == 0 {
		t.Error("Started should be set")
	}
	if f, err := tr.Format(); err != nil || f != FormatBin {
		t.Errorf("Format() = %v, %v; want FormatBin, nil", f, err)
	}

	chunk, err := tr.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if chunk.Idle || !bytes.Equal(chunk.Data, []byte{0x80, 0x80, 0x41}) {
		t.Errorf("First chunk = %+v", chunk)
	}

	chunk, err = tr.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if !bytes.Equal(chunk.Data, []byte{0x01, 0x02}) {
		t.Errorf("Second chunk = %+v", chunk)
	}

	chunk, err = tr.Next()
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if !chunk.Idle || len(chunk.Data) != 0 {
		t.Errorf("Third chunk should be idle, got %+v", chunk)
	}

	if _, err := tr.Next(); err != io.EOF {
		t.Errorf("Expected io.EOF after last chunk, got %v", err)
	}
}

func TestTranscript_OffsetsMonotonic(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, FormatRim, "test")
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := rec.RecordChunk([]byte{byte(i)}); err != nil {
			t.Fatalf("RecordChunk error: %v", err)
		}
	}

	tr, err := OpenTranscript(&buf)
	if err != nil {
		t.Fatalf("OpenTranscript error: %v", err)
	}
	last := int64(-1)
	for {
		chunk, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if chunk.Offset < last {
			t.Errorf("Offsets should not go backwards: %d after %d", chunk.Offset, last)
		}
		last = chunk.Offset
	}
}

func TestTranscript_UnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	header := TranscriptHeader{Version: 99, Format: "bin", Started: 1}
	data, err := cbor.Marshal(header)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	buf.Write(data)

	if _, err := OpenTranscript(&buf); err == nil {
		t.Error("Expected error for unsupported transcript version")
	}
}

func TestTranscript_EmptyStream(t *testing.T) {
	if _, err := OpenTranscript(bytes.NewReader(nil)); err == nil {
		t.Error("Expected error for empty transcript stream")
	}
}

func TestTranscript_TruncatedChunk(t *testing.T) {
	var buf bytes.Buffer
	rec, err := NewRecorder(&buf, FormatBin, "test")
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}
	if err := rec.RecordChunk(bytes.Repeat([]byte{0x11}, 64)); err != nil {
		t.Fatalf("RecordChunk error: %v", err)
	}

	// Drop the tail of the last chunk record
	data := buf.Bytes()
	tr, err := OpenTranscript(bytes.NewReader(data[:len(data)-10]))
	if err != nil {
		t.Fatalf("OpenTranscript error: %v", err)
	}
	if _, err := tr.Next(); err == nil || err == io.EOF {
		t.Errorf("Truncated chunk should fail with a real error, got %v", err)
	}
}
