// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

var (
	captureFormat      string
	captureStripByte   uint8
	captureIdleTimeout int
	captureTranscript  string
)

var captureCmd = &cobra.Command{
	Use:   "capture [output-file]",
	Short: "Capture a paper tape from the reader",
	Long: `Capture a paper tape through the connection and write the decoded image to a file.

The decoder runs one of three formats:
  rim   RIM punch format: leader run, origin, data words, trailer
  bin   BIN punch format: RIM framing plus a 12-bit checksum
  raw   verbatim passthrough, optionally stripping a ragged head

Polling continues while nothing has arrived yet; once data flows, the capture
ends when the tape finishes or the line stays idle for the idle-timeout.
The default output file is out.bin.

Exit codes:
  0 - Capture written
  1 - Nothing captured or a read/write failure
  2 - Connection error`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVarP(&captureFormat, "format", "f", "bin", "Tape format: bin, rim, or raw")
	captureCmd.Flags().Uint8Var(&captureStripByte, "strip-byte", 0, "Byte value to strip from the head of a raw capture")
	captureCmd.Flags().IntVar(&captureIdleTimeout, "idle-timeout", 1, "Seconds of silence that end a capture")
	captureCmd.Flags().StringVar(&captureTranscript, "transcript", "", "Record the session to a CBOR transcript file")
}

func runCapture(cmd *cobra.Command, args []string) error {
	format, err := papertape.ParseFormat(configFormat(cmd, captureFormat))
	if err != nil {
		return err
	}

	output := defaultOutput("out.bin")
	if len(args) > 0 {
		output = args[0]
	}

	var opts []papertape.Option
	if cmd.Flags().Changed("strip-byte") {
		opts = append(opts, papertape.WithStripByte(captureStripByte))
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Printf("Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("Tapecat - Paper Tape Capture\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Output: %s\n\n", output)

	var recorder *papertape.Recorder
	if captureTranscript != "" {
		f, err := os.Create(captureTranscript)
		if err != nil {
			return fmt.Errorf("failed to create transcript: %w", err)
		}
		defer f.Close()
		recorder, err = papertape.NewRecorder(f, format, connInfo)
		if err != nil {
			return err
		}
	}

	decoder := papertape.NewDecoder(format, opts...)
	stats := papertape.NewStatistics()

	image, err := captureSession(conn, decoder, stats, recorder, time.Duration(captureIdleTimeout)*time.Second)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s", stats.String())

	if len(image) == 0 {
		return fmt.Errorf("no data captured")
	}

	if err := os.WriteFile(output, image, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(image), output)
	return nil
}

// captureSession runs the poll loop until the tape ends or the line
// goes idle after data has started flowing. Each poll is one Read with
// the idle timeout armed; an empty read is an idle poll.
func captureSession(conn Connection, decoder *papertape.Decoder, stats *papertape.Statistics, recorder *papertape.Recorder, idleTimeout time.Duration) ([]byte, error) {
	if err := conn.SetReadTimeout(idleTimeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %v", err)
	}

	var image []byte
	buf := make([]byte, 128)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if err == ErrConnectionClosed {
				colorlog.Printf("Connection closed, finalizing capture")
				break
			}
			return image, fmt.Errorf("read error: %v", err)
		}

		idle := n == 0
		if idle {
			stats.RecordIdle()
			if recorder != nil {
				if err := recorder.RecordIdle(); err != nil {
					return image, err
				}
			}
		} else {
			emitted := 0
			for _, b := range buf[:n] {
				out, verdict := decoder.DecodeByte(b)
				image = append(image, out...)
				emitted += len(out)
				if verdict != nil {
					stats.RecordVerdict(verdict)
					printVerdict(verdict)
				}
			}
			stats.Update(n, emitted)
			if recorder != nil {
				if err := recorder.RecordChunk(buf[:n]); err != nil {
					return image, err
				}
			}
		}

		// Keep polling while the tape has not started; afterwards the
		// session ends on completion or the first idle poll
		if decoder.State() == papertape.StateStart {
			continue
		}
		if decoder.Done() || idle {
			break
		}
	}

	return image, nil
}
