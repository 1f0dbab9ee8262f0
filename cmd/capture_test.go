// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

// ============================================================
// Test helpers
// ============================================================

// scriptedConn replays a fixed sequence of reads. An empty script
// entry is an idle poll; a read past the end reports the connection
// closed.
type scriptedConn struct {
	script  [][]byte
	pos     int
	timeout time.Duration
	closed  bool
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if c.pos >= len(c.script) {
		return 0, ErrConnectionClosed
	}
	chunk := c.script[c.pos]
	c.pos++
	return copy(p, chunk), nil
}

func (c *scriptedConn) Write(p []byte) (int, error) { return len(p), nil }

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

func (c *scriptedConn) SetReadTimeout(d time.Duration) error {
	c.timeout = d
	return nil
}

func leaderChunk(n int) []byte {
	chunk := make([]byte, n)
	for i := range chunk {
		chunk[i] = papertape.LeaderByte
	}
	return chunk
}

// ============================================================
// Session loop tests
// ============================================================

func TestCaptureSession_RimTape(t *testing.T) {
	conn := &scriptedConn{script: [][]byte{
		leaderChunk(9),
		{0x41, 0x01, 0x02, 0x80, 0x80, 0x80, 0x00},
		{0xFF}, // next tape, must not be consumed
	}}
	decoder := papertape.NewDecoder(papertape.FormatRim)
	stats := papertape.NewStatistics()

	image, err := captureSession(conn, decoder, stats, nil, time.Second)
	if err != nil {
		t.Fatalf("captureSession failed: %v", err)
	}

	want := append(leaderChunk(9), 0x41, 0x01, 0x02, 0x80, 0x80, 0x80)
	if !bytes.Equal(image, want) {
		t.Errorf("Image = % X, want % X", image, want)
	}
	if !decoder.Done() {
		t.Errorf("Decoder state = %v, want DONE", decoder.State())
	}
	if conn.pos != 2 {
		t.Errorf("Consumed %d chunks, want 2 (loop must stop at the trailer)", conn.pos)
	}
	if stats.BytesRead != 16 {
		t.Errorf("BytesRead = %d, want 16", stats.BytesRead)
	}
	if stats.BytesEmitted != 15 {
		t.Errorf("BytesEmitted = %d, want 15", stats.BytesEmitted)
	}
	if conn.timeout != time.Second {
		t.Errorf("Read timeout = %v, want 1s", conn.timeout)
	}
}

func TestCaptureSession_IdleEndsRawTape(t *testing.T) {
	conn := &scriptedConn{script: [][]byte{
		{}, // idle before the tape starts keeps polling
		{},
		{0x01, 0x02, 0x03},
		{}, // idle after data ends the session
		{0x04},
	}}
	decoder := papertape.NewDecoder(papertape.FormatRaw)
	stats := papertape.NewStatistics()

	image, err := captureSession(conn, decoder, stats, nil, time.Second)
	if err != nil {
		t.Fatalf("captureSession failed: %v", err)
	}

	if !bytes.Equal(image, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("Image = % X, want 01 02 03", image)
	}
	if conn.pos != 4 {
		t.Errorf("Consumed %d chunks, want 4 (trailing data must stay unread)", conn.pos)
	}
	if stats.IdlePolls != 3 {
		t.Errorf("IdlePolls = %d, want 3", stats.IdlePolls)
	}
}

func TestCaptureSession_BinVerdict(t *testing.T) {
	// Body sums to 0104: 41 + 00 + 01 + 02. Checksum punched as 01 04.
	conn := &scriptedConn{script: [][]byte{
		leaderChunk(9),
		{0x41, 0x00, 0x01, 0x02, 0x01, 0x04, 0x80},
		{0x80, 0x00},
	}}
	decoder := papertape.NewDecoder(papertape.FormatBin)
	stats := papertape.NewStatistics()

	image, err := captureSession(conn, decoder, stats, nil, time.Second)
	if err != nil {
		t.Fatalf("captureSession failed: %v", err)
	}

	if !decoder.Done() {
		t.Errorf("Decoder state = %v, want DONE", decoder.State())
	}
	if len(image) != 17 {
		t.Errorf("Image length = %d, want 17", len(image))
	}
	if stats.ChecksumOK != 1 || stats.ChecksumFail != 0 {
		t.Errorf("Verdicts = %d OK / %d FAIL, want 1 OK / 0 FAIL",
			stats.ChecksumOK, stats.ChecksumFail)
	}
}

func TestCaptureSession_ConnectionClosedFinalizes(t *testing.T) {
	conn := &scriptedConn{script: [][]byte{
		leaderChunk(9),
		{0x41, 0x01, 0x02},
	}}
	decoder := papertape.NewDecoder(papertape.FormatRim)
	stats := papertape.NewStatistics()

	image, err := captureSession(conn, decoder, stats, nil, time.Second)
	if err != nil {
		t.Fatalf("captureSession failed: %v", err)
	}

	// Everything seen so far survives a dropped connection
	want := append(leaderChunk(9), 0x41, 0x01, 0x02)
	if !bytes.Equal(image, want) {
		t.Errorf("Image = % X, want % X", image, want)
	}
}
