// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Tapeworks
//
// Tapecat - PDP-8 Paper Tape Capture Tool
//
// A CLI tool for capturing, decoding, and verifying PDP-8 paper tapes
// arriving over a serial line or a WebSocket serial bridge.

package main

import (
	"os"

	"github.com/tapeworks/tapecat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
