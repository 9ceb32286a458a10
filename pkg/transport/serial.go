// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the modem's AT command port.
	DefaultBaudRate = 921600

	// DefaultPortReadTimeout bounds each read on the serial port so the
	// background reader notices Close promptly.
	DefaultPortReadTimeout = 100 * time.Millisecond
)

// SerialDialer opens the AT channel on a local serial port.
type SerialDialer struct {
	PortName string
	BaudRate int
	// ReadTimeout is the port level read timeout. Zero selects
	// DefaultPortReadTimeout.
	ReadTimeout time.Duration
	// Mode overrides BaudRate and the 8N1 defaults when set.
	Mode *serial.Mode
}

// Dial opens the serial port and discards anything left in its input
// buffer from a previous session.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, ErrNoPortName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	port, err := serial.Open(d.PortName, d.mode())
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", d.PortName, err)
	}

	readTimeout := d.ReadTimeout
	if readTimeout == 0 {
		readTimeout = DefaultPortReadTimeout
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", d.PortName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset input buffer on %s: %w", d.PortName, err)
	}

	return NewLineTransport(port), nil
}

func (d SerialDialer) mode() *serial.Mode {
	if d.Mode != nil {
		return d.Mode
	}
	baud := d.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// String describes the connection for status headers.
func (d SerialDialer) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", d.PortName, d.mode().BaudRate)
}
