// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/dut"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

var urcLogNoEnable bool

var urcLogCmd = &cobra.Command{
	Use:   "urc_log",
	Short: "Display unsolicited result codes as they arrive",
	Long: `Enable registration URCs (AT+CEREG=2) and print every unsolicited line the
modem sends, decoding +CEREG reports into status, tracking area, cell and
access technology.

Press Ctrl+C to exit.`,
	RunE: runUrcLog,
}

func init() {
	rootCmd.AddCommand(urcLogCmd)
	urcLogCmd.Flags().BoolVar(&urcLogNoEnable, "no-enable", false, "Do not send AT+CEREG=2 first")
}

func runUrcLog(cmd *cobra.Command, args []string) error {
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
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine, err := openEngine(ctx, dialer, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("dutbench - URC Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	if !urcLogNoEnable {
		if _, err := engine.SendAndWaitForExactString(ctx, at.CmdEnableRegistration, at.OK, time.Second); err != nil {
			logger.Warn("enabling registration URCs", "error", err)
		}
	}

	for {
		urc, err := engine.ReceiveURC(ctx, 10*time.Second, 5*time.Second)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, at.ErrTransportUnavailable) {
				logger.Info("connection closed")
				return nil
			}
			return err
		}
		printURCs(os.Stdout, time.Now(), urc)
	}
}

// printURCs writes one line per non-empty line of text, decoding
// registration reports.
func printURCs(w io.Writer, now time.Time, text string) {
	ts := now.Format("15:04:05.000")
	for _, line := range at.SplitLines(text) {
		if at.Classify(line) != at.TypeURC {
			fmt.Fprintf(w, "[%s] %-5s %s\n", ts, at.Classify(line), line)
			continue
		}
		reg, ok := dut.ParseRegistrationURC(line)
		if !ok {
			fmt.Fprintf(w, "[%s] urc   %s\n", ts, line)
			continue
		}
		fmt.Fprintf(w, "[%s] urc   %s (%s", ts, line, instrument.StatusName(reg.Status))
		if reg.TAC != "" || reg.CellID != "" {
			fmt.Fprintf(w, ", tac=%s ci=%s act=%s", reg.TAC, reg.CellID, instrument.AccessTechName(reg.AccessTech))
		}
		fmt.Fprintf(w, ")\n")
	}
}
