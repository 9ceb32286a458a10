// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/dutbench/pkg/report"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <report-file>",
	Short: "Upload a saved report",
	Long: `Upload a report written earlier (for example with run --report-dir
--no-upload) to S3 under its derived key <ICCID>_<test time>.<ext>.

The format is taken from the file extension (.json or .cbor); --format
re-encodes the report before uploading.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().String("format", "", "Upload format (json, cbor); defaults to the file's format")
	uploadCmd.Flags().String("bucket", report.DefaultBucket, "S3 bucket for reports")
	uploadCmd.Flags().String("region", "", "AWS region (defaults to the AWS configuration)")
	uploadCmd.Flags().String("report-dir", "", "Copy the report into this directory instead of uploading")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg, err := configFor(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closeLog()

	path := args[0]
	inFormat, err := report.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	rep, err := report.Decode(data, inFormat)
	if err != nil {
		return err
	}
	if rep.ICCID == "" {
		return fmt.Errorf("%s: report has no SIM ICCID", path)
	}

	outFormat := inFormat
	if cmd.Flags().Changed("format") {
		if outFormat, err = report.ParseFormat(cfg.Format); err != nil {
			return err
		}
	}

	if cfg.ReportDir != "" {
		cfg.Upload = false
	}
	return publishReport(cmd.Context(), cfg, outFormat, rep, logger)
}
