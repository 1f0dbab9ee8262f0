// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	sendDelay     int
	sendHandshake bool
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Transmit a tape image out the connection",
	Long: `Feed a tape image to a punch or loader over the connection.
Pass '-' to read the image from stdin.

Slow equipment needs pacing: --delay sleeps between bytes, and
--handshake (serial only) waits for the punch to assert CTS before
each chunk goes out.

Exit codes:
  0: image sent
  1: read or write failure
  2: connection error`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendDelay, "delay", 0, "Delay between bytes (milliseconds)")
	sendCmd.Flags().BoolVar(&sendHandshake, "handshake", false, "Wait for CTS before each chunk (serial only)")
}

func runSend(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read image: %v", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("nothing to send")
	}

	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	var serialConn *SerialConnection
	if sendHandshake {
		sc, ok := conn.(*SerialConnection)
		if !ok {
			return fmt.Errorf("--handshake requires a serial connection")
		}
		serialConn = sc
	}

	fmt.Printf("Tapecat - Tape Feeder\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Image: %s (%d bytes)\n\n", args[0], len(data))

	// Paced sends go out a byte at a time, otherwise chunked
	chunkSize := 256
	if sendDelay > 0 {
		chunkSize = 1
	}

	sent := 0
	for sent < len(data) {
		end := sent + chunkSize
		if end > len(data) {
			end = len(data)
		}

		if serialConn != nil {
			if err := serialConn.WaitCTS(); err != nil {
				return err
			}
		}

		n, err := conn.Write(data[sent:end])
		if err != nil {
			return fmt.Errorf("write failed after %d bytes: %v", sent, err)
		}
		sent += n

		if sent%1024 == 0 || sent == len(data) {
			fmt.Printf("\rSent %6d / %d bytes", sent, len(data))
		}

		if sendDelay > 0 {
			time.Sleep(time.Duration(sendDelay) * time.Millisecond)
		}
	}

	fmt.Printf("\nDone\n")
	return nil
}
