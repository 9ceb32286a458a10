// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/dutbench/pkg/dialup"
	"github.com/Thermoquad/dutbench/pkg/display"
	"github.com/Thermoquad/dutbench/pkg/instrument"
	"github.com/Thermoquad/dutbench/pkg/report"
)

const publishTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full bench test and publish the report",
	Long: `Run one bench test against the modem.

The run waits for the modem to boot, verifies and configures the AT channel,
waits for network registration and then brings up a dial-up link and measures
throughput with iperf3. Registration changes are monitored for the whole run
and counted as out-of-coverage events.

When the data session ends, all tasks are stopped and the report is printed,
written to --report-dir if given, and uploaded to S3 unless --no-upload is set.
AWS credentials come from the standard AWS configuration chain.

By default the status is shown in a terminal UI and logs go to dutbench.log.
Use --tui=false for plain text status lines.`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("tui", true, "Use terminal UI (false for text mode)")
	runCmd.Flags().Duration("boot-delay", defaultBootDelay, "Wait for the modem to boot before opening the AT channel")
	runCmd.Flags().String("format", string(report.FormatJSON), "Report format (json, cbor)")
	runCmd.Flags().String("bucket", report.DefaultBucket, "S3 bucket for reports")
	runCmd.Flags().String("region", "", "AWS region (defaults to the AWS configuration)")
	runCmd.Flags().String("report-dir", "", "Also write the report into this directory")
	runCmd.Flags().Bool("no-upload", false, "Do not upload the report to S3")
	runCmd.Flags().String("provider", "", "pppd peer used for the dial-up link")
	runCmd.Flags().String("iperf-server", "", "iperf3 server address")
	runCmd.Flags().Duration("iperf-duration", 0, "iperf3 test duration")
}

type benchResult struct {
	snap instrument.Snapshot
	err  error
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	logger, closeLog, err := newLogger(cfg, cfg.TUI)
	if err != nil {
		return err
	}
	defer closeLog()

	dialer, connInfo, err := dialerFor(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &bench{
		dialer:    dialer,
		executor:  dialup.ShellExecutor{},
		bootDelay: cfg.BootDelay,
		dialup: dialup.Config{
			Provider:     cfg.Provider,
			Server:       cfg.IperfServer,
			TestDuration: cfg.IperfDuration,
		},
		logger: logger,
	}

	var res benchResult
	if cfg.TUI {
		res, err = runWithTUI(ctx, b, connInfo)
		if err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
	} else {
		fmt.Printf("dutbench - LTE Bench Test\n")
		fmt.Printf("Connection: %s\n", connInfo)
		fmt.Printf("Press Ctrl+C to exit\n\n")
		b.renderer = display.NewTextRenderer(os.Stdout)
		res.snap, res.err = b.run(ctx)
	}
	if res.err != nil {
		logger.Error("bench run failed", "error", res.err)
	}

	fmt.Println(b.stats.String())
	rep := report.FromSnapshot(res.snap)
	if err := printReport(os.Stdout, rep); err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	return errors.Join(res.err, publishReport(pubCtx, cfg, format, rep, logger))
}

// runWithTUI runs the bench behind the terminal UI. Quitting the UI
// cancels the bench; the bench finishing closes the UI.
func runWithTUI(ctx context.Context, b *bench, connInfo string) (benchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(initialModel(connInfo))
	b.renderer = tuiRenderer{send: p.Send}

	done := make(chan benchResult, 1)
	go func() {
		snap, err := b.run(ctx)
		done <- benchResult{snap: snap, err: err}
		p.Send(benchDoneMsg{err: err})
	}()

	_, tuiErr := p.Run()
	cancel()
	return <-done, tuiErr
}

func printReport(w io.Writer, rep report.Report) error {
	data, err := report.Encode(rep, report.FormatJSON)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// publishReport hands the report to the configured destinations. A run
// that never read the SIM has no usable report key and is not published.
func publishReport(ctx context.Context, cfg *Config, format report.Format, rep report.Report, logger *slog.Logger) error {
	if rep.ICCID == "" {
		logger.Warn("no SIM identity gathered, report not published")
		return nil
	}

	var uploaders []report.Uploader
	if cfg.ReportDir != "" {
		uploaders = append(uploaders, report.DirUploader{Dir: cfg.ReportDir})
	}
	if cfg.Upload {
		s3, err := report.NewS3Uploader(ctx, cfg.Bucket, cfg.Region)
		if err != nil {
			return err
		}
		uploaders = append(uploaders, s3)
	}
	if len(uploaders) == 0 {
		return nil
	}

	key, err := report.Publish(ctx, rep, format, uploaders...)
	if err != nil {
		return fmt.Errorf("publish report %s: %w", key, err)
	}
	logger.Info("report published", "key", key, "bucket", cfg.Bucket, "dir", cfg.ReportDir)
	fmt.Printf("Report published: %s\n", key)
	return nil
}
