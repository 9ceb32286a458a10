// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package at

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Thermoquad/dutbench/pkg/transport"
)

// DefaultReadSlice bounds every single transport read so cancellation is
// observed between reads.
const DefaultReadSlice = 250 * time.Millisecond

// Engine sends AT commands over a Transport and accumulates their
// replies. It is not safe for concurrent use: one session owns the
// transport.
type Engine struct {
	transport transport.Transport
	logger    *slog.Logger
	stats     *Statistics
	readSlice time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger AT traffic is written to at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStatistics shares a statistics tracker with the engine.
func WithStatistics(stats *Statistics) Option {
	return func(e *Engine) {
		e.stats = stats
	}
}

// WithReadSlice overrides DefaultReadSlice.
func WithReadSlice(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.readSlice = d
		}
	}
}

// NewEngine creates an engine on an open transport.
func NewEngine(t transport.Transport, opts ...Option) *Engine {
	e := &Engine{
		transport: t,
		logger:    slog.Default(),
		stats:     NewStatistics(),
		readSlice: DefaultReadSlice,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Statistics returns the engine's exchange counters.
func (e *Engine) Statistics() *Statistics {
	return e.stats
}

// Close closes the underlying transport.
func (e *Engine) Close() error {
	return e.transport.Close()
}

// SendAndAwait writes command and accumulates reply lines until the text
// contains terminator or timeout elapses.
//
// A nil error only means the command was written: the reply may be
// incomplete when the terminator never arrived, so callers must inspect
// the text. ErrTransportUnavailable is returned when the write or a read
// fails, and ctx.Err() when ctx ends first.
func (e *Engine) SendAndAwait(ctx context.Context, command, terminator string, timeout time.Duration) (string, error) {
	if terminator == "" {
		terminator = OK
	}
	if err := e.send(ctx, command); err != nil {
		return "", err
	}

	start := time.Now()
	deadline := start.Add(timeout)
	var response strings.Builder
	terminated := false

	for {
		if strings.Contains(response.String(), terminator) {
			terminated = true
			break
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return response.String(), err
		}

		line, err := e.transport.ReadLine(e.slice(remaining))
		response.WriteString(line)
		if err != nil {
			e.stats.recordTransportError()
			return response.String(), fmt.Errorf("%w: read reply to %s: %v", ErrTransportUnavailable, command, err)
		}
	}

	e.stats.recordCommand(terminated)
	e.logger.Debug("at exchange",
		"command", command,
		"response", response.String(),
		"terminated", terminated,
		"elapsed", time.Since(start))
	return response.String(), nil
}

// SendAndWaitForExactString writes command, reads for the whole timeout
// window, and succeeds only when expected occurs in the accumulated text.
// The text read is returned in every case.
func (e *Engine) SendAndWaitForExactString(ctx context.Context, command, expected string, timeout time.Duration) (string, error) {
	if err := e.send(ctx, command); err != nil {
		return "", err
	}

	start := time.Now()
	deadline := start.Add(timeout)
	var response strings.Builder

	for remaining := time.Until(deadline); remaining > 0; remaining = time.Until(deadline) {
		if err := ctx.Err(); err != nil {
			return response.String(), err
		}
		line, err := e.transport.ReadLine(e.slice(remaining))
		response.WriteString(line)
		if err != nil {
			e.stats.recordTransportError()
			return response.String(), fmt.Errorf("%w: read reply to %s: %v", ErrTransportUnavailable, command, err)
		}
	}

	matched := strings.Contains(response.String(), expected)
	e.stats.recordCommand(matched)
	e.logger.Debug("at exchange",
		"command", command,
		"response", response.String(),
		"expected", expected,
		"matched", matched,
		"elapsed", time.Since(start))

	if !matched {
		return response.String(), fmt.Errorf("%w: %s: %q not received", ErrUnexpectedResponse, command, expected)
	}
	return response.String(), nil
}

// ReceiveURC waits for unsolicited output. It reads until the accumulated
// text ends with CRLF or overall elapses, whichever comes first, and
// returns the text. An empty result means nothing arrived this cycle.
func (e *Engine) ReceiveURC(ctx context.Context, overall, perRead time.Duration) (string, error) {
	deadline := time.Now().Add(overall)
	var urc strings.Builder

	for {
		if strings.HasSuffix(urc.String(), CRLF) {
			break
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return urc.String(), err
		}

		line, err := e.transport.ReadLine(e.slice(min(perRead, remaining)))
		urc.WriteString(line)
		if err != nil {
			e.stats.recordTransportError()
			return urc.String(), fmt.Errorf("%w: read urc: %v", ErrTransportUnavailable, err)
		}
	}

	text := urc.String()
	e.stats.recordURC(text == "")
	if text != "" {
		e.logger.Debug("at urc", "text", text)
	}
	return text, nil
}

func (e *Engine) send(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.transport.WriteLine(command); err != nil {
		e.stats.recordTransportError()
		e.logger.Debug("at write failed", "command", command, "error", err)
		return fmt.Errorf("%w: write %s: %v", ErrTransportUnavailable, command, err)
	}
	return nil
}

func (e *Engine) slice(d time.Duration) time.Duration {
	return min(d, e.readSlice)
}
