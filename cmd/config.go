// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Thermoquad/dutbench/pkg/report"
	"github.com/Thermoquad/dutbench/pkg/transport"
)

const (
	defaultBaudRate  = transport.DefaultBaudRate
	defaultBootDelay = 90 * time.Second
)

// Config is the command configuration after layering defaults, the
// environment and command line flags.
type Config struct {
	// Connection
	Port          string
	Baud          int
	URL           string
	Username      string
	Password      string
	SkipTLSVerify bool

	// Logging
	LogLevel  string
	LogFormat string
	LogFile   string

	// run
	BootDelay time.Duration // wait for the modem USB interface after power up
	TUI       bool
	Format    string
	Bucket    string
	Region    string
	ReportDir string
	Upload    bool

	// Data session, zero keeps the dialup package defaults
	Provider      string
	IperfServer   string
	IperfDuration time.Duration
}

// configOption modifies a Config
type configOption func(*Config) error

// loadConfig creates a new config by applying the given options in order
func loadConfig(opts ...configOption) (*Config, error) {
	config := &Config{}
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	return config, nil
}

// configFor layers defaults, environment and the flags set on cmd.
func configFor(cmd *cobra.Command) (*Config, error) {
	return loadConfig(withDefaults(), withEnv(), withFlags(cmd.Flags()))
}

func withDefaults() configOption {
	return func(c *Config) error {
		c.Baud = defaultBaudRate
		c.LogLevel = "info"
		c.LogFormat = "text"
		c.BootDelay = defaultBootDelay
		c.TUI = true
		c.Format = string(report.FormatJSON)
		c.Bucket = report.DefaultBucket
		c.Upload = true
		return nil
	}
}

// withEnv loads configuration from environment variables
func withEnv() configOption {
	return func(c *Config) error {
		if port := os.Getenv("DUT_PORT"); port != "" {
			c.Port = port
		}

		if baud := os.Getenv("DUT_BAUD"); baud != "" {
			b, err := strconv.Atoi(baud)
			if err != nil {
				return fmt.Errorf("DUT_BAUD: %w", err)
			}
			c.Baud = b
		}

		if u := os.Getenv("DUT_URL"); u != "" {
			c.URL = u
		}

		if pw := os.Getenv("DUTBENCH_PASSWORD"); pw != "" {
			c.Password = pw
		}

		if delay := os.Getenv("DUT_BOOT_DELAY"); delay != "" {
			d, err := time.ParseDuration(delay)
			if err != nil {
				return fmt.Errorf("DUT_BOOT_DELAY: %w", err)
			}
			c.BootDelay = d
		}

		if bucket := os.Getenv("REPORT_BUCKET"); bucket != "" {
			c.Bucket = bucket
		}

		if dir := os.Getenv("REPORT_DIR"); dir != "" {
			c.ReportDir = dir
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		return nil
	}
}

// withFlags applies the flags that were set explicitly on the command
// line. Unset flags keep the value from the earlier layers.
func withFlags(fs *pflag.FlagSet) configOption {
	return func(c *Config) error {
		var err error
		fs.Visit(func(f *pflag.Flag) {
			if err != nil {
				return
			}
			v := f.Value.String()
			switch f.Name {
			case "port":
				c.Port = v
			case "baud":
				c.Baud, err = strconv.Atoi(v)
			case "url":
				c.URL = v
			case "username":
				c.Username = v
			case "no-ssl-verify":
				c.SkipTLSVerify, err = strconv.ParseBool(v)
			case "log-level":
				c.LogLevel = v
			case "log-format":
				c.LogFormat = v
			case "log-file":
				c.LogFile = v
			case "boot-delay":
				c.BootDelay, err = time.ParseDuration(v)
			case "tui":
				c.TUI, err = strconv.ParseBool(v)
			case "format":
				c.Format = v
			case "bucket":
				c.Bucket = v
			case "region":
				c.Region = v
			case "report-dir":
				c.ReportDir = v
			case "no-upload":
				var skip bool
				skip, err = strconv.ParseBool(v)
				c.Upload = !skip
			case "provider":
				c.Provider = v
			case "iperf-server":
				c.IperfServer = v
			case "iperf-duration":
				c.IperfDuration, err = time.ParseDuration(v)
			}
			if err != nil {
				err = fmt.Errorf("--%s: %w", f.Name, err)
			}
		})
		return err
	}
}
