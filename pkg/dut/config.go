// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dut

import (
	"log/slog"
	"time"
)

// Config tunes the session timing. Zero values take the defaults below.
type Config struct {
	VerifyAttempts     int           // channel checks before giving up (5)
	CommandTimeout     time.Duration // per command reply window (5s)
	EnableURCTimeout   time.Duration // read window for AT+CEREG=2 (1s)
	RegistrationWindow time.Duration // wall clock to reach registration (120s)
	PollInterval       time.Duration // between AT+CEREG? polls (1s)
	URCTimeout         time.Duration // overall wait for one URC (10s)
	URCReadTimeout     time.Duration // per read during the URC wait (5s)

	// BlockingRegistrationWait ignores shutdown and cancellation while
	// waiting for registration; the wait only ends by registering or when
	// the window closes.
	BlockingRegistrationWait bool

	Logger *slog.Logger
}

func (c *Config) setDefaults() {
	if c.VerifyAttempts == 0 {
		c.VerifyAttempts = 5
	}
	if c.CommandTimeout == 0 {
		c.CommandTimeout = 5 * time.Second
	}
	if c.EnableURCTimeout == 0 {
		c.EnableURCTimeout = time.Second
	}
	if c.RegistrationWindow == 0 {
		c.RegistrationWindow = 120 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.URCTimeout == 0 {
		c.URCTimeout = 10 * time.Second
	}
	if c.URCReadTimeout == 0 {
		c.URCReadTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
