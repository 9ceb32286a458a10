// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dutbench/pkg/at"
)

var (
	sendTimeout    time.Duration
	sendTerminator string
)

var sendCmd = &cobra.Command{
	Use:   "send <command>",
	Short: "Send one AT command and print the reply",
	Long: `Send a single AT command and print every reply line with its classification.

The reply is collected until the terminator (OK by default) appears or the
timeout expires. A timeout is not an error: whatever arrived is printed.

Examples:
  dutbench send --port /dev/ttyUSB2 AT+CSQ
  dutbench send --port /dev/ttyUSB2 --terminator "+CPIN: READY" AT+CPIN?`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 5*time.Second, "Reply window")
	sendCmd.Flags().StringVar(&sendTerminator, "terminator", at.OK, "Text that ends the reply")
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	dialer, _, err := dialerFor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine, err := openEngine(ctx, dialer, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	start := time.Now()
	resp, err := engine.SendAndAwait(ctx, args[0], sendTerminator, sendTimeout)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	lines := at.SplitLines(resp)
	for _, line := range lines {
		fmt.Printf("[%-5s] %s\n", at.Classify(line), line)
	}
	if len(lines) == 0 {
		fmt.Printf("(no reply in %v)\n", sendTimeout)
		return nil
	}
	fmt.Printf("\n%d lines in %v\n", len(lines), elapsed)
	return nil
}
