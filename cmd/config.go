// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Tapeworks

package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const configName = ".tapecat.yaml"

// Config carries defaults normally given as flags
type Config struct {
	Port      string `yaml:"port"`
	Baud      int    `yaml:"baud"`
	URL       string `yaml:"url"`
	Username  string `yaml:"username"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"outputDir"`
}

var config Config

// initConfig loads the YAML config file and fills in connection flags
// the user left at their defaults. A missing default config file is
// fine; a missing or broken --config file is not.
func initConfig() {
	explicit := configPath != ""
	pathToLoad := configPath
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return
		}
		pathToLoad = filepath.Join(home, configName)
	}

	raw, err := os.ReadFile(pathToLoad)
	if err != nil {
		if explicit {
			log.Fatalf("Cannot read config file: %v", err)
		}
		return
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		log.Fatalf("Cannot parse %s: %v", pathToLoad, err)
	}

	flags := rootCmd.PersistentFlags()
	if config.Port != "" && !flags.Changed("port") {
		portName = config.Port
	}
	if config.Baud != 0 && !flags.Changed("baud") {
		baudRate = config.Baud
	}
	if config.URL != "" && !flags.Changed("url") {
		wsURL = config.URL
	}
	if config.Username != "" && !flags.Changed("username") {
		wsUsername = config.Username
	}
}

// configFormat resolves the capture format for a command: an explicit
// --format wins, then the config file, then the flag default
func configFormat(cmd *cobra.Command, flagValue string) string {
	if !cmd.Flags().Changed("format") && config.Format != "" {
		return config.Format
	}
	return flagValue
}

// defaultOutput resolves a default output filename against the
// configured output directory
func defaultOutput(name string) string {
	if config.OutputDir != "" {
		return filepath.Join(config.OutputDir, name)
	}
	return name
}
