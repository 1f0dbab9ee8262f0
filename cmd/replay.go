// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

var (
	replayFormat    string
	replayStripByte uint8
	replayTiming    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <transcript> [output-file]",
	Short: "Re-run a recorded capture session",
	Long: `Replay a CBOR session transcript through a fresh decoder.

The replay produces the same image and verdicts as the live session did,
without the hardware. Recorded idle polls end the session exactly where
the live loop stopped. With --timing the recorded inter-poll gaps are
honored; the default replays at full speed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayFormat, "format", "f", "", "Override the format recorded in the transcript")
	replayCmd.Flags().Uint8Var(&replayStripByte, "strip-byte", 0, "Byte value to strip from the head of a raw capture")
	replayCmd.Flags().BoolVar(&replayTiming, "timing", false, "Honor recorded inter-poll gaps")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open transcript: %v", err)
	}
	defer f.Close()

	tr, err := papertape.OpenTranscript(f)
	if err != nil {
		return err
	}

	format, err := tr.Format()
	if err != nil {
		return err
	}
	if replayFormat != "" {
		format, err = papertape.ParseFormat(replayFormat)
		if err != nil {
			return err
		}
	}

	var opts []papertape.Option
	if cmd.Flags().Changed("strip-byte") {
		opts = append(opts, papertape.WithStripByte(replayStripByte))
	}

	header := tr.Header()
	fmt.Printf("Tapecat - Transcript Replay\n")
	fmt.Printf("Recorded: %s from %s\n", time.Unix(header.Started, 0).Format(time.RFC3339), header.Source)
	fmt.Printf("Format: %s\n\n", format)

	decoder := papertape.NewDecoder(format, opts...)
	stats := papertape.NewStatistics()

	var image []byte
	lastOffset := int64(0)
	for {
		chunk, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		if replayTiming && chunk.Offset > lastOffset {
			time.Sleep(time.Duration(chunk.Offset-lastOffset) * time.Millisecond)
		}
		lastOffset = chunk.Offset

		if chunk.Idle {
			stats.RecordIdle()
		} else {
			emitted := 0
			for _, b := range chunk.Data {
				out, verdict := decoder.DecodeByte(b)
				image = append(image, out...)
				emitted += len(out)
				if verdict != nil {
					stats.RecordVerdict(verdict)
					printVerdict(verdict)
				}
			}
			stats.Update(len(chunk.Data), emitted)
		}

		// Same exit rule as the live loop
		if decoder.State() == papertape.StateStart {
			continue
		}
		if decoder.Done() || chunk.Idle {
			break
		}
	}

	fmt.Printf("\n%s", stats.String())

	if len(args) > 1 {
		if len(image) == 0 {
			return fmt.Errorf("no data decoded")
		}
		if err := os.WriteFile(args[1], image, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %v", args[1], err)
		}
		fmt.Printf("Wrote %d bytes to %s\n", len(image), args[1])
	} else {
		fmt.Printf("Decoded %d bytes\n", len(image))
	}
	return nil
}
