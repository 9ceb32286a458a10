// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package at

import "errors"

var (
	// ErrTransportUnavailable is returned when the transport failed to
	// write a command or to read its reply.
	//
	// It is never fatal for a single exchange: callers keep the sentinel
	// value for whatever field the exchange was meant to fill.
	ErrTransportUnavailable = errors.New("transport unavailable")

	// ErrUnexpectedResponse is returned by SendAndWaitForExactString when
	// the expected text never appeared within the read window.
	ErrUnexpectedResponse = errors.New("unexpected response")
)
