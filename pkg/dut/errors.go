// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dut

import "errors"

var (
	// ErrChannelNotResponding is returned when no attempt of the channel
	// check saw OK. The session sends nothing after it.
	ErrChannelNotResponding = errors.New("AT channel not responding")

	// ErrRegistrationTimeout is returned when the registration window
	// closed without a home or roaming registration.
	ErrRegistrationTimeout = errors.New("network registration timed out")

	// ErrNoEngine is returned by Run on a Session built without an Engine.
	ErrNoEngine = errors.New("no AT engine configured")
)

// Messages pushed to the display queue when the session fails.
const (
	MsgChannelNotWorking  = "AT Channel not working"
	MsgRegistrationFailed = "Unable to register with Network"
)
