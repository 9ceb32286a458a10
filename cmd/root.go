// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dutbench",
	Short: "Cellular modem bench test harness",
	Long: `dutbench - drives a cellular modem (the DUT) over its AT command port, waits
for network registration, runs a dial-up throughput test and reports the
result locally and to an object store.

Connection modes:
  Serial:    --port /dev/ttyUSB2 [--baud 921600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the DUTBENCH_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Every connection and logging flag can also be set through the environment
(DUT_PORT, DUT_BAUD, DUT_URL, LOG_LEVEL); flags win over the environment.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	// Connection flags
	rootCmd.PersistentFlags().StringP("port", "p", "", "Serial port of the modem AT channel")
	rootCmd.PersistentFlags().IntP("baud", "b", defaultBaudRate, "Baud rate (serial only)")
	rootCmd.PersistentFlags().StringP("url", "u", "", "Serial bridge WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().String("username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Logging flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to this file instead of stderr")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
