// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// Driver brings up the PPP link over the modem's data port and measures
// throughput with iperf3.
type Driver struct {
	exec   Executor
	state  *instrument.State
	bus    *events.Bus
	config Config
	logger *slog.Logger
}

func NewDriver(exec Executor, state *instrument.State, bus *events.Bus, config Config) *Driver {
	config.setDefaults()
	return &Driver{
		exec:   exec,
		state:  state,
		bus:    bus,
		config: config,
		logger: config.Logger.With("component", "dialup"),
	}
}

// run executes command, logs its output and returns it. Command failures
// are logged; the output gathered so far is still returned.
func (d *Driver) run(ctx context.Context, command string) string {
	out, err := d.exec.Execute(ctx, command)
	if err != nil {
		d.logger.Warn("command failed", "command", command, "error", err)
	}
	d.logger.Debug("command output", "command", command, "output", out)
	return out
}

// Run dials, checks the link, routes the iperf server over it and runs
// the throughput test. The link is hung up before returning once it was
// dialed.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("initiating dialup connection", "provider", d.config.Provider)
	d.run(ctx, "sudo pon "+d.config.Provider)
	defer func() {
		d.logger.Info("terminating dialup connection")
		d.run(context.WithoutCancel(ctx), "sudo poff "+d.config.Provider)
	}()

	if err := sleep(ctx, d.config.DialSettle); err != nil {
		return err
	}

	if strings.Contains(d.run(ctx, "plog"), "Connection terminated") {
		return fmt.Errorf("%w: pppd reported connection terminated", ErrDialFailed)
	}
	d.logger.Info("dialup connection successful")

	if strings.Contains(d.run(ctx, "ifconfig"), "ppp0") {
		d.logger.Info("ppp connection present")
	} else {
		d.logger.Warn("ppp0 interface not found")
	}

	ip, ok := FindIPAddress(d.run(ctx, "ifconfig ppp0"))
	if ok {
		d.logger.Info("ppp address", "ip", ip)
		d.run(ctx, fmt.Sprintf("sudo ip route add %s/32 via %s", d.config.Server, ip))
		d.run(ctx, "ip route")
	} else {
		d.logger.Warn("no address on ppp0, iperf server not routed")
	}

	return d.measure(ctx)
}

func (d *Driver) measure(ctx context.Context) error {
	command := fmt.Sprintf("iperf3 -c %s -p %s -t %dsecs",
		d.config.Server, d.config.Ports, int(d.config.TestDuration.Seconds()))

	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		d.state.SetRunningTask("Running iperf data transfer")
		d.logger.Info("running iperf client", "attempt", attempt, "duration", d.config.TestDuration)

		if result, ok := ParseThroughput(d.run(ctx, command)); ok {
			d.logger.Info("transfer rate", "result", result)
			d.state.SetRunningTask("Test Completed")
			d.state.SetFinalResult(result)
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt < d.config.MaxAttempts {
			if err := sleep(ctx, d.config.RetryBackoff); err != nil {
				return err
			}
		}
	}

	d.logger.Error("failed to get iperf results", "attempts", d.config.MaxAttempts)
	d.bus.Display.Put(events.Error(MsgThroughputFailed))
	return ErrThroughputRetriesExhausted
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
