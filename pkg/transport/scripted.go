// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"strings"
	"sync"
	"time"
)

// ScriptedTransport is a test helper that answers commands with canned
// replies. Unknown commands get no reply, like a modem that ignores them.
// Exported for use in tests of the packages layered on Transport.
type ScriptedTransport struct {
	mu      sync.Mutex
	replies map[string][]string
	pending string
	written []string
	closed  bool
	signal  chan struct{}
}

// NewScriptedTransport creates an empty script.
func NewScriptedTransport() *ScriptedTransport {
	return &ScriptedTransport{
		replies: make(map[string][]string),
		signal:  make(chan struct{}, 1),
	}
}

// Reply registers the replies for command. Each write of command
// consumes the next reply; the last one repeats.
func (s *ScriptedTransport) Reply(command string, replies ...string) *ScriptedTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[command] = append(s.replies[command], replies...)
	return s
}

// Inject queues unsolicited output as if the modem had sent it.
func (s *ScriptedTransport) Inject(text string) {
	s.mu.Lock()
	s.pending += text
	s.mu.Unlock()
	s.wake()
}

// Written returns the commands written so far, in order.
func (s *ScriptedTransport) Written() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

// Count returns how many times command was written.
func (s *ScriptedTransport) Count(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.written {
		if w == command {
			n++
		}
	}
	return n
}

// Closed reports whether Close was called.
func (s *ScriptedTransport) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *ScriptedTransport) WriteLine(text string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrConnectionClosed
	}
	s.written = append(s.written, text)
	if queue := s.replies[text]; len(queue) > 0 {
		s.pending += queue[0]
		if len(queue) > 1 {
			s.replies[text] = queue[1:]
		}
	}
	s.mu.Unlock()
	s.wake()
	return nil
}

func (s *ScriptedTransport) ReadLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return "", ErrConnectionClosed
		}
		if i := strings.IndexByte(s.pending, '\n'); i >= 0 {
			line := s.pending[:i+1]
			s.pending = s.pending[i+1:]
			s.mu.Unlock()
			return line, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			rest := s.pending
			s.pending = ""
			s.mu.Unlock()
			return rest, nil
		}
		s.mu.Unlock()

		timer := time.NewTimer(remaining)
		select {
		case <-s.signal:
		case <-timer.C:
		}
		timer.Stop()
	}
}

func (s *ScriptedTransport) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
	return nil
}

func (s *ScriptedTransport) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

var _ Transport = (*ScriptedTransport)(nil)
