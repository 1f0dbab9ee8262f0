// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package papertape

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// TranscriptVersion is the transcript stream version this package writes
const TranscriptVersion = 1

// TranscriptHeader opens a transcript stream: one CBOR record ahead of
// the chunk records
type TranscriptHeader struct {
	Version int    `cbor:"1,keyasint"`
	Format  string `cbor:"2,keyasint"`
	Source  string `cbor:"3,keyasint"`
	Started int64  `cbor:"4,keyasint"` // unix seconds
}

// TranscriptChunk records one poll of the byte source. Idle polls are
// kept so a replay reproduces the session's loop behavior exactly.
type TranscriptChunk struct {
	Offset int64  `cbor:"1,keyasint"` // milliseconds since the session started
	Idle   bool   `cbor:"2,keyasint,omitempty"`
	Data   []byte `cbor:"3,keyasint,omitempty"`
}

// Recorder writes a capture session to a transcript stream as it
// happens. The header is written immediately on construction; each
// poll appends one chunk record.
type Recorder struct {
	enc     *cbor.Encoder
	started time.Time
}

// NewRecorder starts a transcript on w and writes its header
func NewRecorder(w io.Writer, format Format, source string) (*Recorder, error) {
	started := time.Now()
	enc := cbor.NewEncoder(w)
	header := TranscriptHeader{
		Version: TranscriptVersion,
		Format:  format.String(),
		Source:  source,
		Started: started.Unix(),
	}
	if err := enc.Encode(header); err != nil {
		return nil, fmt.Errorf("failed to write transcript header: %w", err)
	}
	return &Recorder{enc: enc, started: started}, nil
}

// RecordChunk appends a non-empty poll to the transcript
func (r *Recorder) RecordChunk(data []byte) error {
	chunk := TranscriptChunk{
		Offset: time.Since(r.started).Milliseconds(),
		Data:   data,
	}
	if err := r.enc.Encode(chunk); err != nil {
		return fmt.Errorf("failed to write transcript chunk: %w", err)
	}
	return nil
}

// RecordIdle appends an idle poll to the transcript
func (r *Recorder) RecordIdle() error {
	chunk := TranscriptChunk{
		Offset: time.Since(r.started).Milliseconds(),
		Idle:   true,
	}
	if err := r.enc.Encode(chunk); err != nil {
		return fmt.Errorf("failed to write transcript chunk: %w", err)
	}
	return nil
}

// TranscriptReader reads a transcript stream back chunk by chunk
type TranscriptReader struct {
	dec    *cbor.Decoder
	header TranscriptHeader
}

// OpenTranscript reads and validates the header of a transcript stream
func OpenTranscript(r io.Reader) (*TranscriptReader, error) {
	dec := cbor.NewDecoder(r)
	var header TranscriptHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to read transcript header: %w", err)
	}
	if header.Version != TranscriptVersion {
		return nil, fmt.Errorf("unsupported transcript version %d", header.Version)
	}
	return &TranscriptReader{dec: dec, header: header}, nil
}

// Header returns the transcript header
func (t *TranscriptReader) Header() TranscriptHeader {
	return t.header
}

// Format parses the format name recorded in the header
func (t *TranscriptReader) Format() (Format, error) {
	return ParseFormat(t.header.Format)
}

// Next returns the next recorded poll, or io.EOF after the last one
func (t *TranscriptReader) Next() (*TranscriptChunk, error) {
	var chunk TranscriptChunk
	if err := t.dec.Decode(&chunk); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read transcript chunk: %w", err)
	}
	return &chunk, nil
}
