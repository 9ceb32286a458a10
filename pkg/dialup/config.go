// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

import (
	"log/slog"
	"time"
)

type Config struct {
	Provider     string        // pppd peer name passed to pon/poff
	Server       string        // iperf3 server address
	Ports        string        // iperf3 port or port range
	TestDuration time.Duration // iperf3 -t
	MaxAttempts  int
	RetryBackoff time.Duration
	DialSettle   time.Duration // wait between pon and the plog check
	GracePeriod  time.Duration // wait between the start signal and dialing

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.Provider == "" {
		c.Provider = "MyProvider"
	}
	if c.Server == "" {
		c.Server = "209.58.159.68"
	}
	if c.Ports == "" {
		c.Ports = "5201-5210"
	}
	if c.TestDuration == 0 {
		c.TestDuration = 600 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 6
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = 5 * time.Second
	}
	if c.DialSettle == 0 {
		c.DialSettle = 3 * time.Second
	}
	if c.GracePeriod == 0 {
		c.GracePeriod = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
