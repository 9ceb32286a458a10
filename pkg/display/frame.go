// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package display renders the bench status from the shared state and the
// display queue.
package display

import (
	"strings"

	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// Frame is one screenful of status. A frame with Error set is final.
type Frame struct {
	Network    string
	Task       string
	Throughput string
	Error      string

	// Snapshot is the state the frame was built from, for renderers that
	// show more than the status lines.
	Snapshot instrument.Snapshot
}

func (f Frame) IsError() bool {
	return f.Error != ""
}

// Text is the plain multi-line form of the frame.
func (f Frame) Text() string {
	var b strings.Builder
	b.WriteString("Network: " + f.Network)
	if f.IsError() {
		b.WriteString("\nError!: \n" + f.Error)
		return b.String()
	}
	b.WriteString("\nTask: " + f.Task)
	if f.Throughput != "" {
		b.WriteString("\nThroughput: " + f.Throughput)
	}
	return b.String()
}

func statusFrame(snap instrument.Snapshot) Frame {
	return Frame{
		Network:    instrument.StatusName(snap.Registration.Status),
		Task:       snap.RunningTask,
		Throughput: snap.FinalResult,
		Snapshot:   snap,
	}
}

func errorFrame(snap instrument.Snapshot, message string) Frame {
	return Frame{
		Network:  instrument.StatusName(snap.Registration.Status),
		Error:    message,
		Snapshot: snap,
	}
}
