// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

import "errors"

var (
	// ErrDialFailed is returned when pppd reports the connection was
	// terminated right after dialing.
	ErrDialFailed = errors.New("dial-up connection failed")

	// ErrThroughputRetriesExhausted is returned when no throughput test
	// produced a result within the configured attempts.
	ErrThroughputRetriesExhausted = errors.New("throughput test retries exhausted")
)

// MsgThroughputFailed is pushed to the display queue when the throughput
// test gives up.
const MsgThroughputFailed = "iperf Connection Failed"
