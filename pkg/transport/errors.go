// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import "errors"

var (
	// ErrNoPortName is returned by SerialDialer when no port is configured.
	ErrNoPortName = errors.New("transport: serial port name is required")

	// ErrConnectionClosed is returned when reading from or writing to a
	// transport whose underlying connection has been closed, either
	// locally or by the peer.
	ErrConnectionClosed = errors.New("transport: connection closed")

	// ErrUnsupportedScheme is returned by WebSocketDialer for URLs that
	// are neither ws:// nor wss://.
	ErrUnsupportedScheme = errors.New("transport: unsupported URL scheme")
)
