// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package tapeimage

import (
	"fmt"
	"io"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

// Scan reads a whole tape image and walks it into records
func Scan(r io.Reader, format papertape.Format) ([]Record, *Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	return ScanBytes(data, format)
}

// ScanBytes walks a tape image into records and totals.
//
// Leader-class bytes coalesce into runs. Field-class bytes stand
// alone. Origin and data bytes pair with the following byte to form a
// 12-bit word; the pairing is blind, the way the tape loaders read it.
// Origin and data pairs feed the running checksum with their raw byte
// values, leader and field bytes never do. For bin images the last
// word before the trailer is reclassified as the punched checksum and
// backed out of the sum, matching what the capture decoder verifies.
func ScanBytes(data []byte, format papertape.Format) ([]Record, *Summary, error) {
	records := []Record{}
	summary := &Summary{Bytes: len(data)}
	var sum uint16

	i := 0
	for i < len(data) {
		b := data[i]
		switch papertape.ClassifyByte(b) {
		case papertape.ClassLeader:
			start := i
			for i < len(data) && papertape.ClassifyByte(data[i]) == papertape.ClassLeader {
				i++
			}
			records = append(records, Record{
				Kind:   RecordLeader,
				Offset: start,
				Count:  i - start,
				Sum:    sum,
			})
			summary.LeaderBytes += i - start

		case papertape.ClassField:
			records = append(records, Record{
				Kind:   RecordField,
				Offset: i,
				Field:  int(b & 0x07),
				Sum:    sum,
			})
			summary.Fields++
			i++

		case papertape.ClassOrigin:
			if i+1 >= len(data) {
				return records, summary, fmt.Errorf("truncated origin pair at offset %d", i)
			}
			lo := data[i+1]
			sum = (sum + uint16(b) + uint16(lo)) & papertape.WordMask
			records = append(records, Record{
				Kind:   RecordOrigin,
				Offset: i,
				Word:   pairWord(b, lo),
				Sum:    sum,
			})
			summary.Origins++
			i += 2

		default:
			if i+1 >= len(data) {
				return records, summary, fmt.Errorf("truncated data pair at offset %d", i)
			}
			lo := data[i+1]
			sum = (sum + uint16(b) + uint16(lo)) & papertape.WordMask
			records = append(records, Record{
				Kind:   RecordWord,
				Offset: i,
				Word:   pairWord(b, lo),
				Sum:    sum,
			})
			summary.Words++
			i += 2
		}
	}

	if format == papertape.FormatBin {
		markChecksum(records, summary, data)
	}
	return records, summary, nil
}

// markChecksum reclassifies the last word of a bin image as the
// punched checksum and verifies it
func markChecksum(records []Record, summary *Summary, data []byte) {
	for j := len(records) - 1; j >= 0; j-- {
		rec := &records[j]
		if rec.Kind == RecordLeader {
			continue
		}
		if rec.Kind != RecordWord {
			return
		}

		hi, lo := data[rec.Offset], data[rec.Offset+1]
		computed := (rec.Sum - uint16(hi) - uint16(lo)) & papertape.WordMask

		rec.Kind = RecordChecksum
		rec.Computed = computed
		rec.OK = computed == rec.Word

		summary.Words--
		summary.HasChecksum = true
		summary.ChecksumOK = rec.OK
		summary.Computed = computed
		summary.Received = rec.Word
		return
	}
}
