// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package events

import "fmt"

// StartSignal tells the data session that the DUT is registered.
type StartSignal struct{}

func (StartSignal) String() string {
	return "[AT] start"
}

type DisplayKind int

const (
	StatusUpdate DisplayKind = iota
	ErrorMessage
)

func (k DisplayKind) String() string {
	switch k {
	case StatusUpdate:
		return "status"
	case ErrorMessage:
		return "error"
	default:
		return fmt.Sprintf("DisplayKind(%d)", int(k))
	}
}

// DisplayEvent is consumed by the display task.
type DisplayEvent struct {
	Kind    DisplayKind
	Message string
}

func Status(message string) DisplayEvent {
	return DisplayEvent{Kind: StatusUpdate, Message: message}
}

func Error(message string) DisplayEvent {
	return DisplayEvent{Kind: ErrorMessage, Message: message}
}

// Bus holds the two named queues shared by the bench tasks.
type Bus struct {
	DataReady *Queue[StartSignal]
	Display   *Queue[DisplayEvent]
}

func NewBus() *Bus {
	return &Bus{
		DataReady: NewQueue[StartSignal](),
		Display:   NewQueue[DisplayEvent](),
	}
}
