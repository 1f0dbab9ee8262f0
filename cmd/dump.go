// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

var (
	dumpLogFile string
	dumpQuiet   bool
)

var errQuitRequested = errors.New("quit requested")

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Hexdump everything arriving on the connection",
	Long: `Print every byte read from the connection in hexdump style:

  00000000  80 80 80 80 80 80 80 80  41 01 02 80 80 80 80 80  |........A.......|

No decoding is applied; this is the tool for checking what the reader
interface is actually sending. Offsets accumulate across reads.

Use --log to tee the raw bytes to a file and --quiet to suppress the
dump itself (log only). Press 'q' to exit.`,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpLogFile, "log", "l", "", "Write received bytes to a file")
	dumpCmd.Flags().BoolVarP(&dumpQuiet, "quiet", "q", false, "Don't print on stdout")
}

// hexDumper accumulates bytes into 16-wide hexdump rows
type hexDumper struct {
	offset int
	row    [16]byte
}

func (h *hexDumper) writeByte(b byte) {
	col := h.offset & 0xF
	if col == 0 {
		fmt.Printf("%08x  ", h.offset)
	}
	if b >= 0x20 && b < 0x7F {
		h.row[col] = b
	} else {
		h.row[col] = '.'
	}
	fmt.Printf("%02x ", b)
	if col == 7 {
		fmt.Print(" ")
	}
	if col == 15 {
		// \r\n because rows print while the terminal is raw
		fmt.Printf(" |%s|\r\n", h.row[:])
	}
	h.offset++
}

// finish ends a partial row without the ASCII gutter
func (h *hexDumper) finish() {
	if h.offset&0xF != 0 {
		fmt.Print("\r\n")
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	var logFile *os.File
	if dumpLogFile != "" {
		logFile, err = os.Create(dumpLogFile)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %v", dumpLogFile, err)
		}
		defer logFile.Close()
	}

	fmt.Printf("Tapecat - Serial Dump\n")
	fmt.Printf("Connection: %s\n", connInfo)
	if dumpLogFile != "" {
		fmt.Printf("Log: %s\n", dumpLogFile)
	}
	fmt.Printf("Press 'q' to exit\n\n")

	// Raw stdin so a bare keypress ends the dump
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("failed to set terminal mode: %v", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	if err := conn.SetReadTimeout(500 * time.Millisecond); err != nil {
		return fmt.Errorf("failed to set read timeout: %v", err)
	}

	dumper := &hexDumper{}
	received := 0
	keys := make(chan byte, 1)
	go func() {
		b := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(b)
			if err != nil || n == 0 {
				return
			}
			keys <- b[0]
		}
	}()

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		buf := make([]byte, 128)
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			n, err := conn.Read(buf)
			if err != nil {
				return err
			}
			received += n
			for i := 0; i < n; i++ {
				if logFile != nil {
					logFile.Write(buf[i : i+1])
				}
				if !dumpQuiet {
					dumper.writeByte(buf[i])
				}
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case k := <-keys:
				// Raw mode turns Ctrl+C into a plain 0x03
				if k == 'q' || k == 0x03 {
					return errQuitRequested
				}
			}
		}
	})

	err = g.Wait()
	dumper.finish()
	term.Restore(int(os.Stdin.Fd()), oldState)
	fmt.Printf("\nReceived %d bytes\n", received)

	if errors.Is(err, errQuitRequested) || errors.Is(err, ErrConnectionClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
