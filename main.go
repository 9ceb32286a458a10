// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// dutbench - Cellular Modem Bench Test Harness
//
// Drives a modem over its AT command channel, measures dial-up throughput
// and publishes a per-SIM report.

package main

import (
	"os"

	"github.com/Thermoquad/dutbench/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
