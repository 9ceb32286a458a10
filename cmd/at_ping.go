// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dutbench/pkg/at"
)

var (
	atPingTimeout int
	atPingCount   int
)

var atPingCmd = &cobra.Command{
	Use:   "at_ping",
	Short: "Check the AT channel by sending AT and waiting for OK",
	Long: `Send AT to the modem and wait for OK, like ping.

This is useful for verifying:
  - The serial port or WebSocket bridge is reachable
  - The modem has finished booting and answers on the AT port
  - Round trip latency of the AT channel

Exit codes:
  0 - All pings answered
  1 - One or more pings failed/timed out
  2 - Connection error`,
	RunE: runAtPing,
}

func init() {
	rootCmd.AddCommand(atPingCmd)
	atPingCmd.Flags().IntVar(&atPingTimeout, "timeout", 5, "Timeout in seconds for each ping")
	atPingCmd.Flags().IntVar(&atPingCount, "count", 3, "Number of pings to send")
}

func runAtPing(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	dialer, connInfo, err := dialerFor(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	engine, err := openEngine(cmd.Context(), dialer, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer engine.Close()

	fmt.Printf("dutbench - AT Ping\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds per ping\n", atPingTimeout)
	fmt.Printf("Count: %d pings\n\n", atPingCount)

	timeout := time.Duration(atPingTimeout) * time.Second
	successCount := 0
	failCount := 0

	for i := 1; i <= atPingCount; i++ {
		fmt.Printf("Ping %d/%d: ", i, atPingCount)

		startTime := time.Now()
		resp, err := engine.SendAndAwait(cmd.Context(), at.CmdAttention, at.OK, timeout)
		rtt := time.Since(startTime)

		switch {
		case err != nil:
			fmt.Printf("FAILED: %v\n", err)
			failCount++
		case strings.Contains(resp, at.OK):
			fmt.Printf("OK, rtt=%v\n", rtt.Round(time.Millisecond))
			successCount++
		case strings.TrimSpace(resp) != "":
			fmt.Printf("UNEXPECTED REPLY %q\n", strings.TrimSpace(resp))
			failCount++
		default:
			fmt.Printf("TIMEOUT (no response in %ds)\n", atPingTimeout)
			failCount++
		}

		// Small delay between pings
		if i < atPingCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Ping statistics ---\n")
	fmt.Printf("%d pings sent, %d replies received, %.0f%% loss\n",
		atPingCount, successCount, float64(failCount)/float64(atPingCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}
