// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/transport"
)

var errNoConnection = errors.New("either --port or --url must be specified")

// GetPassword prompts for the bridge password without echo
func GetPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// dialerFor picks the WebSocket bridge when a URL is configured and the
// serial port otherwise. The second result describes the connection.
func dialerFor(c *Config) (transport.Dialer, string, error) {
	if c.URL != "" {
		password := c.Password
		if c.Username != "" && password == "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}
		d := transport.WebSocketDialer{
			URL:           c.URL,
			Username:      c.Username,
			Password:      password,
			SkipTLSVerify: c.SkipTLSVerify,
		}
		return d, d.String(), nil
	}

	if c.Port != "" {
		d := transport.SerialDialer{PortName: c.Port, BaudRate: c.Baud}
		return d, d.String(), nil
	}

	return nil, "", errNoConnection
}

// openEngine dials the AT channel and wraps it in an engine that logs
// traffic to logger.
func openEngine(ctx context.Context, dialer transport.Dialer, logger *slog.Logger, opts ...at.Option) (*at.Engine, error) {
	t, err := dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}
	opts = append([]at.Option{at.WithLogger(logger.With("component", "at"))}, opts...)
	return at.NewEngine(t, opts...), nil
}
