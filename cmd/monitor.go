// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tapeworks/tapecat/pkg/papertape"
)

var (
	monitorFormat        string
	monitorStripByte     uint8
	monitorIdleTimeout   int
	monitorOutput        string
	monitorTranscript    string
	monitorStatsInterval int
	monitorTUI           bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live capture dashboard",
	Long: `Watch the line continuously, decoding tape after tape.

Unlike capture, monitor does not stop at the first completed tape: each
finished session is written out (numbered when there is more than one)
and the decoder resets for the next tape. The dashboard shows decoder
state, lead-in progress, byte counters and rates, checksum verdicts,
and a log of recent events.

Use --tui=false for a plain text mode that prints events as they happen
and a statistics summary at a configurable interval.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVarP(&monitorFormat, "format", "f", "bin", "Tape format: bin, rim, or raw")
	monitorCmd.Flags().Uint8Var(&monitorStripByte, "strip-byte", 0, "Byte value to strip from the tape head (raw format only)")
	monitorCmd.Flags().IntVar(&monitorIdleTimeout, "idle-timeout", 1, "Seconds of silence that end a tape")
	monitorCmd.Flags().StringVarP(&monitorOutput, "output", "o", "", "Write each captured tape to this file (numbered after the first)")
	monitorCmd.Flags().StringVar(&monitorTranscript, "transcript", "", "Record the session to a CBOR transcript file")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics update interval in text mode (seconds)")
	monitorCmd.Flags().BoolVar(&monitorTUI, "tui", true, "Use terminal UI (false for text mode)")
}

// sessionPath numbers output files when the monitor captures more than
// one tape: out.bin, out-2.bin, out-3.bin.
func sessionPath(base string, n int) string {
	if n <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	format, err := papertape.ParseFormat(configFormat(cmd, monitorFormat))
	if err != nil {
		return err
	}

	var opts []papertape.Option
	if cmd.Flags().Changed("strip-byte") {
		opts = append(opts, papertape.WithStripByte(monitorStripByte))
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	if err := conn.SetReadTimeout(time.Duration(monitorIdleTimeout) * time.Second); err != nil {
		return fmt.Errorf("failed to set read timeout: %v", err)
	}

	var recorder *papertape.Recorder
	if monitorTranscript != "" {
		f, err := os.Create(monitorTranscript)
		if err != nil {
			return fmt.Errorf("failed to create transcript %s: %v", monitorTranscript, err)
		}
		defer f.Close()
		recorder, err = papertape.NewRecorder(f, format, connInfo)
		if err != nil {
			return fmt.Errorf("failed to write transcript header: %v", err)
		}
	}

	if monitorTUI {
		return runMonitorTUI(conn, connInfo, format, opts, recorder)
	}
	return runMonitorText(conn, connInfo, format, opts, recorder)
}

// runMonitorTUI runs the monitor as a full-screen dashboard
func runMonitorTUI(conn Connection, connInfo string, format papertape.Format, opts []papertape.Option, recorder *papertape.Recorder) error {
	decoder := papertape.NewDecoder(format, opts...)
	m := initialMonitorModel(connInfo, format, monitorOutput, decoder)
	p := tea.NewProgram(m)

	// Connection reader goroutine; the recorder is only touched here
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				p.Send(connClosedMsg{err: err})
				return
			}
			if n == 0 {
				if recorder != nil {
					recorder.RecordIdle()
				}
				p.Send(chunkMsg{idle: true})
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			if recorder != nil {
				recorder.RecordChunk(data)
			}
			p.Send(chunkMsg{data: data})
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runMonitorText runs the monitor in plain text mode
func runMonitorText(conn Connection, connInfo string, format papertape.Format, opts []papertape.Option, recorder *papertape.Recorder) error {
	fmt.Printf("Tapecat - Tape Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Statistics interval: %d seconds\n", monitorStatsInterval)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	decoder := papertape.NewDecoder(format, opts...)
	stats := papertape.NewStatistics()

	statsTicker := time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking connection reads
	chunks := make(chan chunkMsg, 10)
	readErrs := make(chan error, 1)
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				readErrs <- err
				return
			}
			if n == 0 {
				if recorder != nil {
					recorder.RecordIdle()
				}
				chunks <- chunkMsg{idle: true}
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			if recorder != nil {
				recorder.RecordChunk(data)
			}
			chunks <- chunkMsg{data: data}
		}
	}()

	var image []byte
	sessions := 0

	finish := func(reason string) {
		if len(image) > 0 {
			if monitorOutput != "" {
				path := sessionPath(monitorOutput, sessions+1)
				if err := os.WriteFile(path, image, 0644); err != nil {
					fmt.Printf("[SESSION] \033[1;31mWrite failed: %v\033[0m\n\n", err)
				} else {
					fmt.Printf("[SESSION] Wrote %d bytes to %s (%s)\n\n", len(image), path, reason)
				}
			} else {
				fmt.Printf("[SESSION] Tape ended after %d bytes (%s)\n\n", len(image), reason)
			}
			sessions++
		}
		image = nil
		decoder.Reset()
	}

	for {
		select {
		case msg := <-chunks:
			if msg.idle {
				stats.RecordIdle()
				if decoder.State() != papertape.StateStart {
					finish("idle line")
				}
				continue
			}

			stateBefore := decoder.State()
			emitted := 0
			for _, b := range msg.data {
				out, verdict := decoder.DecodeByte(b)
				image = append(image, out...)
				emitted += len(out)
				if verdict != nil {
					stats.RecordVerdict(verdict)
					timestamp := time.Now().Format("15:04:05.000")
					if verdict.OK {
						fmt.Printf("[%s] \033[1;32m%s\033[0m\n", timestamp, verdict)
					} else {
						fmt.Printf("[%s] \033[1;31m%s\033[0m\n", timestamp, verdict)
					}
				}
			}
			stats.Update(len(msg.data), emitted)

			if stateBefore == papertape.StateStart && decoder.State() != papertape.StateStart {
				fmt.Printf("[%s] Tape detected\n", time.Now().Format("15:04:05.000"))
			}
			if decoder.Done() {
				finish("trailer")
			}

		case err := <-readErrs:
			if decoder.State() != papertape.StateStart {
				finish("connection closed")
			}
			if err == ErrConnectionClosed {
				colorlog.Printf("Connection closed")
				return nil
			}
			return fmt.Errorf("read error: %v", err)

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
