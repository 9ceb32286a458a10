// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transport provides the line-oriented byte stream used to talk to
// the device under test.
//
// A Transport is opened by a Dialer (serial port or a WebSocket serial
// bridge) and exposes exactly the primitives the AT layer needs: write one
// command line, read one response line with a timeout, close.
package transport

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=transport

import (
	"context"
	"time"
)

// CRLF terminates every line written to and read from the modem.
const CRLF = "\r\n"

// Transport is an established connection to the modem's AT channel.
//
// ReadLine must only be called from a single goroutine. WriteLine and Close
// may be called from any goroutine.
type Transport interface {
	// WriteLine writes text followed by CRLF.
	WriteLine(text string) error

	// ReadLine returns the next line including its line terminator. When
	// the timeout expires first, it returns whatever partial text arrived
	// in the meantime, which is the empty string if nothing did. It never
	// blocks longer than timeout. A non-nil error means the connection is
	// gone.
	ReadLine(timeout time.Duration) (string, error)

	// Close releases the underlying connection.
	Close() error
}

// Dialer opens a Transport. Implementations hold the connection
// parameters (port name, baud rate, URL) so callers only need a context.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}
