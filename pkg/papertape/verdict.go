// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks

package papertape

import "fmt"

// Verdict reports the checksum comparison for one captured bin tape.
// Computed is the running 12-bit sum over the body with the checksum
// word backed out; Received is the trailing word punched on the tape.
type Verdict struct {
	OK       bool
	Computed uint16
	Received uint16
}

// String formats the verdict the way the capture log prints it
func (v *Verdict) String() string {
	if v.OK {
		return fmt.Sprintf("Checksum OK!: %04o", v.Received)
	}
	return fmt.Sprintf("Checksum FAIL!: calc %04o <-> recv %04o", v.Computed, v.Received)
}
