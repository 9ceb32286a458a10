// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package at

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Statistics tracks AT exchange counters and rates. It is safe for
// concurrent use.
type Statistics struct {
	mu sync.Mutex

	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	Commands        uint64
	Terminated      uint64 // terminator or expected text seen
	TimedOut        uint64 // window elapsed without terminator
	TransportErrors uint64
	URCs            uint64
	EmptyURCPolls   uint64
}

// StatisticsSnapshot is a copy of the counters at one point in time.
type StatisticsSnapshot struct {
	StartTime       time.Time
	LastUpdateTime  time.Time
	Commands        uint64
	Terminated      uint64
	TimedOut        uint64
	TransportErrors uint64
	URCs            uint64
	EmptyURCPolls   uint64
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

func (s *Statistics) recordCommand(terminated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Commands++
	if terminated {
		s.Terminated++
	} else {
		s.TimedOut++
	}
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) recordTransportError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TransportErrors++
	s.LastUpdateTime = time.Now()
}

func (s *Statistics) recordURC(empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if empty {
		s.EmptyURCPolls++
	} else {
		s.URCs++
	}
	s.LastUpdateTime = time.Now()
}

// Snapshot returns a consistent copy of the counters.
func (s *Statistics) Snapshot() StatisticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatisticsSnapshot{
		StartTime:       s.StartTime,
		LastUpdateTime:  s.LastUpdateTime,
		Commands:        s.Commands,
		Terminated:      s.Terminated,
		TimedOut:        s.TimedOut,
		TransportErrors: s.TransportErrors,
		URCs:            s.URCs,
		EmptyURCPolls:   s.EmptyURCPolls,
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	snap := s.Snapshot()
	elapsed := time.Since(snap.StartTime)

	var terminatedPercent, timedOutPercent float64
	if snap.Commands > 0 {
		terminatedPercent = float64(snap.Terminated) * 100.0 / float64(snap.Commands)
		timedOutPercent = float64(snap.TimedOut) * 100.0 / float64(snap.Commands)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== AT Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	fmt.Fprintf(&b, "Commands:        %8d\n", snap.Commands)
	fmt.Fprintf(&b, "Terminated:      %8d (%.1f%%)\n", snap.Terminated, terminatedPercent)
	if snap.TimedOut > 0 {
		fmt.Fprintf(&b, "Timed Out:       %8d (%.1f%%)\n", snap.TimedOut, timedOutPercent)
	}
	if snap.TransportErrors > 0 {
		fmt.Fprintf(&b, "Transport Errors:%8d\n", snap.TransportErrors)
	}
	fmt.Fprintf(&b, "URCs:            %8d\n", snap.URCs)
	fmt.Fprintf(&b, "Empty URC Polls: %8d\n", snap.EmptyURCPolls)

	if seconds := elapsed.Seconds(); seconds > 0 {
		fmt.Fprintf(&b, "Command Rate:    %8.2f cmd/s\n", float64(snap.Commands)/seconds)
	}
	return b.String()
}
