// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"log"

	"github.com/fatih/color"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

// colorlog prints status lines through the color-aware stderr writer
var colorlog = log.New(color.Error, "", log.LstdFlags)

// printVerdict prints a checksum verdict, green for OK, red for FAIL
func printVerdict(v *papertape.Verdict) {
	if v == nil {
		return
	}
	if v.OK {
		fmt.Println(color.HiGreenString(v.String()))
	} else {
		fmt.Println(color.HiRedString(v.String()))
	}
}
