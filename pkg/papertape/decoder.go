// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package papertape

// Option configures a Decoder at construction time
type Option func(*Decoder)

// WithStripByte sets a byte value to strip from the head of a raw
// capture. The ragged run the reader produces while the tape feeds in
// is replaced by a clean LeaderLength run of the same value. Raw format
// only; RIM and BIN ignore it.
func WithStripByte(b byte) Option {
	return func(d *Decoder) {
		d.strip = b
		d.hasStrip = true
	}
}

// Decoder implements the paper-tape capture state machine.
//
// One decoder serves one capture session. Feed it bytes as they arrive
// with DecodeByte; it returns the bytes that belong in the captured
// image. Any byte is legal in any state, so decoding never fails. The
// accumulators persist until Reset, which returns the decoder to the
// start state for a new session.
type Decoder struct {
	format   Format
	state    State
	strip    byte
	hasStrip bool

	leadIn   int    // consecutive leader bytes counted so far
	checksum uint16 // running 12-bit sum over the bin body
	prev     byte   // last byte that entered the checksum
	prevPrev byte   // the byte before that
}

// NewDecoder creates a decoder for one capture session
func NewDecoder(format Format, opts ...Option) *Decoder {
	d := &Decoder{format: format}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reset returns the decoder to the start state with all accumulators
// cleared
func (d *Decoder) Reset() {
	d.state = StateStart
	d.leadIn = 0
	d.checksum = 0
	d.prev = 0
	d.prevPrev = 0
}

// State returns the current decoder state
func (d *Decoder) State() State {
	return d.state
}

// Done reports whether the capture session has ended
func (d *Decoder) Done() bool {
	return d.state == StateDone
}

// Format returns the capture format the decoder was built for
func (d *Decoder) Format() Format {
	return d.format
}

// LeadInCount returns the number of leader bytes counted toward the
// current lead-in run
func (d *Decoder) LeadInCount() int {
	return d.leadIn
}

// Checksum returns the running 12-bit checksum (bin format only)
func (d *Decoder) Checksum() uint16 {
	return d.checksum
}

// DecodeByte processes a single byte through the capture state machine.
// It returns the bytes to append to the captured image, which may be
// empty, and a checksum verdict when a bin body ends (nil otherwise).
// Emission preserves arrival order; the only reordering is the deferred
// lead-in flush, which releases a counted leader run all at once.
func (d *Decoder) DecodeByte(b byte) ([]byte, *Verdict) {
	switch d.format {
	case FormatRim:
		return d.decodeRim(b), nil
	case FormatBin:
		return d.decodeBin(b)
	default:
		return d.decodeRaw(b), nil
	}
}

// decodeRaw passes every byte through verbatim. With a strip byte
// configured, copies of it are swallowed until the first differing
// byte, which is then preceded by a clean leader run. Raw captures
// never reach DONE; the session ends on an idle poll.
func (d *Decoder) decodeRaw(b byte) []byte {
	if d.state == StateStart {
		if d.hasStrip && b == d.strip {
			return nil
		}
		d.state = StateLeadIn
		if d.hasStrip {
			out := make([]byte, 0, LeaderLength+1)
			for i := 0; i < LeaderLength; i++ {
				out = append(out, d.strip)
			}
			return append(out, b)
		}
	}
	return []byte{b}
}

// decodeRim captures a RIM format tape: a leader run of 0x80 longer
// than MinLeadIn, terminated by an origin byte, then body bytes until
// the trailer starts.
func (d *Decoder) decodeRim(b byte) []byte {
	switch d.state {
	case StateStart:
		if b == LeaderByte {
			d.leadIn++
		}
		d.state = StateLeadIn
		return nil

	case StateLeadIn:
		if b == LeaderByte {
			d.leadIn++
			return nil
		}
		if ClassifyByte(b) == ClassOrigin && d.leadIn > MinLeadIn {
			d.state = StateDataHigh
			return d.flushLeadIn(b)
		}
		// Noise before a convincing leader run; start the count over
		d.leadIn = 0
		return nil

	case StateDataHigh:
		if b == LeaderByte {
			d.state = StateTrailer
		}
		return []byte{b}

	case StateTrailer:
		if b == LeaderByte {
			return []byte{b}
		}
		d.state = StateDone
		return nil

	default:
		return nil
	}
}

// decodeBin captures a BIN format tape. The leader may be terminated by
// an origin or a field byte, the body is checksummed, and the trailing
// word before the trailer carries the punched checksum.
func (d *Decoder) decodeBin(b byte) ([]byte, *Verdict) {
	switch d.state {
	case StateStart:
		if b == LeaderByte {
			d.leadIn++
		}
		d.state = StateLeadIn
		return nil, nil

	case StateLeadIn:
		if b == LeaderByte {
			d.leadIn++
			return nil, nil
		}
		if cls := ClassifyByte(b); (cls == ClassOrigin || cls == ClassField) && d.leadIn > MinLeadIn {
			if cls == ClassOrigin {
				d.checksum = (d.checksum + uint16(b)) & WordMask
			}
			d.state = StateDataLow
			return d.flushLeadIn(b), nil
		}
		d.leadIn = 0
		return nil, nil

	case StateDataLow:
		if b == LeaderByte {
			// The last two checksummed bytes were the punched checksum
			// word, not payload; back them out of the running sum.
			received := uint16(d.prevPrev&DataMask)<<6 | uint16(d.prev&DataMask)
			computed := (d.checksum - uint16(d.prev) - uint16(d.prevPrev)) & WordMask
			d.state = StateTrailer
			return []byte{b}, &Verdict{
				OK:       computed == received,
				Computed: computed,
				Received: received,
			}
		}
		if b&0x80 == 0 {
			d.checksum = (d.checksum + uint16(b)) & WordMask
			d.prevPrev = d.prev
			d.prev = b
		}
		return []byte{b}, nil

	case StateTrailer:
		if b == LeaderByte {
			return []byte{b}, nil
		}
		d.state = StateDone
		return nil, nil

	default:
		return nil, nil
	}
}

// flushLeadIn releases the counted leader run followed by the byte
// that terminated it
func (d *Decoder) flushLeadIn(b byte) []byte {
	out := make([]byte, 0, d.leadIn+1)
	for i := 0; i < d.leadIn; i++ {
		out = append(out, LeaderByte)
	}
	return append(out, b)
}
