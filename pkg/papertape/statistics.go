// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package papertape

import (
	"fmt"
	"time"
)

// Statistics tracks a capture session: polls, byte counts, and
// checksum verdicts
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Polls        uint64
	IdlePolls    uint64
	BytesRead    uint64
	BytesEmitted uint64
	ChecksumOK   uint64
	ChecksumFail uint64

	// Rates (calculated)
	ByteRate float64 // bytes read/sec
	EmitRate float64 // bytes emitted/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one non-empty poll and its decode output
func (s *Statistics) Update(read, emitted int) {
	s.Polls++
	s.BytesRead += uint64(read)
	s.BytesEmitted += uint64(emitted)
	s.LastUpdateTime = time.Now()
}

// RecordIdle records a poll that returned no data
func (s *Statistics) RecordIdle() {
	s.Polls++
	s.IdlePolls++
	s.LastUpdateTime = time.Now()
}

// RecordVerdict records a checksum verdict
func (s *Statistics) RecordVerdict(v *Verdict) {
	if v == nil {
		return
	}
	if v.OK {
		s.ChecksumOK++
	} else {
		s.ChecksumFail++
	}
	s.LastUpdateTime = time.Now()
}

// CalculateRates calculates read and emit rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ByteRate = float64(s.BytesRead) / elapsed
		s.EmitRate = float64(s.BytesEmitted) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var idlePercent, emitPercent float64
	if s.Polls > 0 {
		idlePercent = float64(s.IdlePolls) * 100.0 / float64(s.Polls)
	}
	if s.BytesRead > 0 {
		emitPercent = float64(s.BytesEmitted) * 100.0 / float64(s.BytesRead)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Capture statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Polls:           %8d\n", s.Polls)
	result += fmt.Sprintf("Idle Polls:      %8d (%.1f%%)\n", s.IdlePolls, idlePercent)
	result += fmt.Sprintf("Bytes Read:      %8d\n", s.BytesRead)
	result += fmt.Sprintf("Bytes Emitted:   %8d (%.1f%%)\n", s.BytesEmitted, emitPercent)

	if s.ChecksumOK > 0 {
		result += fmt.Sprintf("Checksum OK:     %8d\n", s.ChecksumOK)
	}
	if s.ChecksumFail > 0 {
		result += fmt.Sprintf("Checksum FAIL:   %8d\n", s.ChecksumFail)
	}

	result += fmt.Sprintf("Byte Rate:       %8.1f bytes/sec\n", s.ByteRate)
	result += fmt.Sprintf("Emit Rate:       %8.1f bytes/sec\n", s.EmitRate)
	result += "========================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	now := time.Now()
	s.StartTime = now
	s.LastUpdateTime = now
	s.Polls = 0
	s.IdlePolls = 0
	s.BytesRead = 0
	s.BytesEmitted = 0
	s.ChecksumOK = 0
	s.ChecksumFail = 0
	s.ByteRate = 0
	s.EmitRate = 0
}
