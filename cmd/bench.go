// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/dialup"
	"github.com/Thermoquad/dutbench/pkg/display"
	"github.com/Thermoquad/dutbench/pkg/dut"
	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
	"github.com/Thermoquad/dutbench/pkg/transport"
)

// bench runs one full test: the DUT session, the data session and the
// display, all sharing one instrument state.
type bench struct {
	dialer          transport.Dialer
	executor        dialup.Executor
	renderer        display.Renderer
	bootDelay       time.Duration
	session         dut.Config
	dialup          dialup.Config
	displayInterval time.Duration
	logger          *slog.Logger

	stats *at.Statistics
}

// run blocks until the data session is over, then raises shutdown and
// waits for the other tasks. The returned snapshot is the final state,
// which is complete as far as the run got even when an error is returned.
func (b *bench) run(ctx context.Context) (instrument.Snapshot, error) {
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.stats == nil {
		b.stats = at.NewStatistics()
	}
	b.session.Logger = b.logger
	b.dialup.Logger = b.logger

	state := instrument.New()
	bus := events.NewBus()

	displayTask := display.NewTask(state, bus.Display, b.renderer, b.displayInterval, b.logger)
	dataTask := dialup.NewTask(b.executor, state, bus, b.dialup)

	// The data session only ever starts on the start signal, so a failed
	// DUT session has to release it explicitly.
	dataCtx, cancelData := context.WithCancel(ctx)
	defer cancelData()

	var wg sync.WaitGroup
	var sessionErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := displayTask.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("display task stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		sessionErr = b.runSession(ctx, state, bus)
		if sessionErr != nil {
			cancelData()
		}
	}()

	dataErr := dataTask.Run(dataCtx)
	b.logger.Info("data session finished, stopping all tasks", "error", dataErr)
	state.RequestShutdown()
	wg.Wait()
	b.logger.Info("all tasks stopped")

	if sessionErr != nil && errors.Is(dataErr, context.Canceled) && ctx.Err() == nil {
		dataErr = nil
	}
	return state.Snapshot(), errors.Join(sessionErr, dataErr)
}

func (b *bench) runSession(ctx context.Context, state *instrument.State, bus *events.Bus) error {
	if b.bootDelay > 0 {
		b.logger.Info("waiting for the modem to boot", "delay", b.bootDelay)
		timer := time.NewTimer(b.bootDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-state.Done():
			return nil
		case <-timer.C:
		}
	}

	engine, err := openEngine(ctx, b.dialer, b.logger, at.WithStatistics(b.stats))
	if err != nil {
		b.logger.Error("failed to open the AT channel", "error", err)
		state.SetPhase(instrument.PhaseFailed)
		bus.Display.Put(events.Error(dut.MsgChannelNotWorking))
		return err
	}

	err = dut.NewSession(engine, state, bus, b.session).Run(ctx)
	snap := b.stats.Snapshot()
	b.logger.Info("AT channel closed",
		"commands", snap.Commands,
		"timed_out", snap.TimedOut,
		"urcs", snap.URCs,
		"transport_errors", snap.TransportErrors)
	return err
}
