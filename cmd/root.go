// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config file override
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "tapecat",
	Short: "PDP-8 Paper Tape Capture Tool",
	Long: `Tapecat - A CLI tool for capturing, inspecting, and replaying PDP-8 paper tapes.

Provides commands for capturing RIM, BIN, and raw tapes from a high-speed
reader, dumping and transmitting raw serial traffic, and walking captured
images word by word with checksum verification.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 1200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the TAPECAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Defaults for the connection flags can be kept in ~/.tapecat.yaml; explicit
flags always win.`,
	Version: "1.2.0",
}

func init() {
	cobra.OnInitialize(initConfig)

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 1200, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tapecat.yaml)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
