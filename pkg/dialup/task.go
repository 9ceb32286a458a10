// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dialup runs the data session once the DUT has registered.
package dialup

import (
	"context"
	"log/slog"

	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// Task waits for the start signal and then runs the Driver.
type Task struct {
	driver *Driver
	state  *instrument.State
	bus    *events.Bus
	config Config
	logger *slog.Logger
}

func NewTask(exec Executor, state *instrument.State, bus *events.Bus, config Config) *Task {
	config.setDefaults()
	return &Task{
		driver: NewDriver(exec, state, bus, config),
		state:  state,
		bus:    bus,
		config: config,
		logger: config.Logger.With("component", "dialup"),
	}
}

// Run blocks until the start signal arrives or ctx ends, waits the grace
// period and runs the driver.
func (t *Task) Run(ctx context.Context) error {
	t.logger.Info("dialup task started")

	if _, err := t.bus.DataReady.Get(ctx); err != nil {
		return err
	}

	t.logger.Info("module registered, starting dialup", "grace", t.config.GracePeriod)
	t.state.SetRunningTask("Starting Dialup")
	if err := sleep(ctx, t.config.GracePeriod); err != nil {
		return err
	}

	err := t.driver.Run(ctx)
	t.logger.Info("dialup task completed", "error", err)
	return err
}
