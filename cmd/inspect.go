// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tapecat/pkg/papertape"
	"github.com/tapeworks/tapecat/pkg/tapeimage"
)

var (
	inspectFormat  string
	inspectSummary bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <image-file>",
	Short: "Decode and list a captured tape image",
	Long: `Walk a captured tape image record by record and print an
annotated listing: leader runs, origin settings, data words with the
running checksum, field settings, and the trailing checksum verdict for
BIN images.

A checksum mismatch is reported in the listing and summary but does not
fail the command; only an unreadable file does.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "bin", "Image format: bin or rim")
	inspectCmd.Flags().BoolVar(&inspectSummary, "summary", false, "Print only the summary")
}

func runInspect(cmd *cobra.Command, args []string) error {
	format, err := papertape.ParseFormat(configFormat(cmd, inspectFormat))
	if err != nil {
		return err
	}
	if format == papertape.FormatRaw {
		return fmt.Errorf("raw images carry no structure to inspect")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %v", args[0], err)
	}

	records, summary, scanErr := tapeimage.ScanBytes(data, format)

	fmt.Printf("Tapecat - Image Inspector\n")
	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Format: %s\n\n", format)

	if !inspectSummary {
		fmt.Print(tapeimage.FormatListing(records))
		fmt.Println()
	}
	fmt.Print(tapeimage.FormatSummary(summary))

	// A truncated image still lists what it has before failing
	return scanErr
}
