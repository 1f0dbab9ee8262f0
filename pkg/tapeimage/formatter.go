// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package tapeimage

import (
	"fmt"
	"strings"
)

// FormatRecord renders one record as a listing line
func FormatRecord(rec Record) string {
	switch rec.Kind {
	case RecordLeader:
		return fmt.Sprintf("L/T (%d)", rec.Count)
	case RecordField:
		return fmt.Sprintf("E-----%d", rec.Field)
	case RecordOrigin:
		return fmt.Sprintf("A %04o", rec.Word)
	case RecordWord:
		return fmt.Sprintf("D %04o %04o", rec.Word, rec.Sum)
	case RecordChecksum:
		if rec.OK {
			return fmt.Sprintf("C %04o OK", rec.Word)
		}
		return fmt.Sprintf("C %04o FAIL (calc %04o)", rec.Word, rec.Computed)
	default:
		return fmt.Sprintf("? record kind %d", int(rec.Kind))
	}
}

// FormatListing renders the octal listing for a scanned image:
// leader runs, field settings, origin addresses, and data words with
// the running checksum
func FormatListing(records []Record) string {
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(FormatRecord(rec))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatSummary renders the scan summary block
func FormatSummary(s *Summary) string {
	result := fmt.Sprintf("=== Image summary (%d bytes) ===\n", s.Bytes)
	result += fmt.Sprintf("Leader/Trailer:  %8d bytes\n", s.LeaderBytes)
	result += fmt.Sprintf("Origin Settings: %8d\n", s.Origins)
	result += fmt.Sprintf("Data Words:      %8d\n", s.Words)

	if s.Fields > 0 {
		result += fmt.Sprintf("Field Settings:  %8d\n", s.Fields)
	}

	if s.HasChecksum {
		if s.ChecksumOK {
			result += fmt.Sprintf("Checksum:              OK (%04o)\n", s.Received)
		} else {
			result += fmt.Sprintf("Checksum:            FAIL (calc %04o <-> recv %04o)\n", s.Computed, s.Received)
		}
	} else {
		result += "Checksum:            none\n"
	}

	result += "================================\n"
	return result
}
