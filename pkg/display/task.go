// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package display

import (
	"context"
	"log/slog"
	"time"

	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

const DefaultPollInterval = 100 * time.Millisecond

// Task polls the shared state and the display queue and hands frames to
// a Renderer.
type Task struct {
	state    *instrument.State
	queue    *events.Queue[events.DisplayEvent]
	renderer Renderer
	interval time.Duration
	logger   *slog.Logger
}

func NewTask(state *instrument.State, queue *events.Queue[events.DisplayEvent], renderer Renderer, interval time.Duration, logger *slog.Logger) *Task {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		state:    state,
		queue:    queue,
		renderer: renderer,
		interval: interval,
		logger:   logger.With("component", "display"),
	}
}

// Run renders until shutdown is requested or ctx ends. An error event is
// rendered once and ends the task; status is not drawn again after it.
// Events already queued when shutdown is requested are still consumed.
func (t *Task) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		// Read before draining: an error is always queued before the
		// shutdown it leads to.
		shutdown := t.state.ShutdownRequested()
		snap := t.state.Snapshot()
		if msg, ok := t.pendingError(); ok {
			t.logger.Warn("received error event", "message", msg)
			t.render(errorFrame(snap, msg))
			return nil
		}
		if shutdown {
			break
		}
		if snap.RunningTask != "" {
			t.render(statusFrame(snap))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.state.Done():
		case <-ticker.C:
		}
	}

	t.logger.Info("closing the display task")
	return nil
}

// pendingError drains the queue and reports the first error event in it.
// A status update carries nothing the snapshot does not already have.
func (t *Task) pendingError() (string, bool) {
	for {
		ev, ok := t.queue.TryGet()
		if !ok {
			return "", false
		}
		if ev.Kind == events.ErrorMessage {
			return ev.Message, true
		}
	}
}

func (t *Task) render(f Frame) {
	if err := t.renderer.Render(f); err != nil {
		t.logger.Warn("render", "error", err)
	}
}
