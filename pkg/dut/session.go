// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dut runs the AT session with the modem under test: channel
// check, configuration, registration wait and registration monitoring.
package dut

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// Session owns the AT engine for its lifetime and closes it when Run
// returns.
type Session struct {
	engine *at.Engine
	state  *instrument.State
	bus    *events.Bus
	config Config
	logger *slog.Logger
}

// NewSession creates a session writing to state and bus.
func NewSession(engine *at.Engine, state *instrument.State, bus *events.Bus, config Config) *Session {
	config.setDefaults()
	return &Session{
		engine: engine,
		state:  state,
		bus:    bus,
		config: config,
		logger: config.Logger.With("component", "dut"),
	}
}

// Run drives the session until it fails, shutdown is requested on the
// shared state, or ctx ends.
//
// A failure returns ErrChannelNotResponding or ErrRegistrationTimeout
// after the matching message was pushed to the display queue. A
// requested shutdown returns nil. Cancellation of ctx returns ctx.Err().
func (s *Session) Run(ctx context.Context) error {
	if s.engine == nil {
		return ErrNoEngine
	}
	defer func() {
		if err := s.engine.Close(); err != nil {
			s.logger.Warn("close transport", "error", err)
		}
		s.logger.Info("connection closed")
	}()

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.state.Done():
			cancel()
		case <-sessionCtx.Done():
		}
	}()

	s.enter(instrument.PhaseVerifyChannel)
	if err := s.verifyChannel(sessionCtx); err != nil {
		return s.finish(ctx, err, MsgChannelNotWorking)
	}

	s.enter(instrument.PhaseConfigure)
	if err := s.configure(sessionCtx); err != nil {
		return s.finish(ctx, err, "")
	}

	s.enter(instrument.PhaseWaitRegistration)
	if err := s.waitRegistration(sessionCtx); err != nil {
		return s.finish(ctx, err, MsgRegistrationFailed)
	}

	s.enter(instrument.PhaseQueryNetwork)
	if err := s.queryNetwork(sessionCtx); err != nil {
		return s.finish(ctx, err, "")
	}

	s.enter(instrument.PhaseSteadyStateMonitor)
	s.logger.Info("start URC monitoring")
	return s.finish(ctx, s.monitor(sessionCtx), "")
}

func (s *Session) enter(p instrument.Phase) {
	s.state.SetPhase(p)
	s.logger.Debug("phase", "phase", p)
}

// finish maps the phase result to the session result. Cancellation
// caused by a shutdown request is a normal termination.
func (s *Session) finish(parent context.Context, err error, displayMsg string) error {
	switch {
	case err == nil:
		s.enter(instrument.PhaseTerminated)
		return nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		s.enter(instrument.PhaseTerminated)
		if parent.Err() != nil {
			return parent.Err()
		}
		return nil
	default:
		s.enter(instrument.PhaseFailed)
		s.logger.Error("session failed", "error", err)
		if displayMsg != "" {
			s.bus.Display.Put(events.Error(displayMsg))
		}
		return err
	}
}

// exchange sends command and returns whatever reply arrived. Transport
// errors are logged and otherwise treated as an empty reply.
func (s *Session) exchange(ctx context.Context, command string) string {
	resp, err := s.engine.SendAndAwait(ctx, command, at.OK, s.config.CommandTimeout)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("command failed", "command", command, "error", err)
	}
	return resp
}

func (s *Session) verifyChannel(ctx context.Context) error {
	for attempt := 1; attempt <= s.config.VerifyAttempts; attempt++ {
		resp := s.exchange(ctx, at.CmdAttention)
		if err := ctx.Err(); err != nil {
			return err
		}
		if hasOK(resp) {
			s.logger.Info("AT channel working", "attempt", attempt)
			return nil
		}
		s.logger.Debug("no reply to AT", "attempt", attempt)
	}
	return ErrChannelNotResponding
}

// configure sends the setup sequence. Every field is best effort: a
// missing or unparsable reply leaves the field at its absent value.
func (s *Session) configure(ctx context.Context) error {
	var id instrument.Identity

	steps := []struct {
		command string
		apply   func(resp string)
	}{
		{at.CmdFullFunctionality, func(resp string) { id.FullFunctionality = hasOK(resp) }},
		{at.CmdEchoOff, func(resp string) { id.EchoOff = hasOK(resp) }},
		{at.CmdVerboseErrors, func(resp string) { id.VerboseErrors = hasOK(resp) }},
		{at.CmdSIMStatus, func(resp string) { id.SIMReady = ParseSIMReady(resp) }},
		{at.CmdIMSI, func(resp string) { id.IMSI, _ = ParseDigits(resp) }},
		{at.CmdICCID, func(resp string) { id.ICCID, _ = ParseICCID(resp) }},
		{at.CmdIMEI, func(resp string) { id.IMEI, _ = ParseDigits(resp) }},
		{at.CmdFirmwareVersion, func(resp string) { id.Firmware, _ = ParseFirmware(resp) }},
	}
	for _, step := range steps {
		resp := s.exchange(ctx, step.command)
		if err := ctx.Err(); err != nil {
			return err
		}
		step.apply(resp)
	}
	s.state.UpdateIdentity(func(stored *instrument.Identity) { *stored = id })

	if err := s.refreshSignal(ctx); err != nil {
		return err
	}

	_, err := s.engine.SendAndWaitForExactString(ctx, at.CmdEnableRegistration, at.OK, s.config.EnableURCTimeout)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		s.logger.Warn("enable registration URC", "error", err)
	}

	s.logger.Info("DUT configured",
		"imsi", id.IMSI,
		"iccid", id.ICCID,
		"imei", id.IMEI,
		"firmware", id.Firmware,
		"sim_ready", id.SIMReady)
	return nil
}

func (s *Session) refreshSignal(ctx context.Context) error {
	resp := s.exchange(ctx, at.CmdSignalQuality)
	if err := ctx.Err(); err != nil {
		return err
	}
	sig, ok := ParseSignal(resp)
	if !ok {
		s.logger.Debug("signal quality not parsed", "response", resp)
	}
	s.state.SetSignal(sig)
	return nil
}

// waitRegistration polls AT+CEREG? until the modem registers at home or
// roaming, or the registration window closes.
func (s *Session) waitRegistration(ctx context.Context) error {
	s.state.SetRunningTask("Waiting for Network Registration")

	if s.config.BlockingRegistrationWait {
		ctx = context.WithoutCancel(ctx)
	}

	deadline := time.Now().Add(s.config.RegistrationWindow)
	for time.Now().Before(deadline) {
		resp := s.exchange(ctx, at.CmdRegistrationStatus)
		if err := ctx.Err(); err != nil {
			return err
		}

		if reg, ok := ParseRegistrationQuery(resp); ok {
			s.state.SetRegistration(reg)
			if reg.Registered() {
				s.logger.Info("registered, sending start event to data session",
					"stat", reg.Status,
					"tac", reg.TAC,
					"ci", reg.CellID,
					"act", reg.AccessTech)
				s.bus.DataReady.Put(events.StartSignal{})
				return nil
			}
		}

		wait := min(s.config.PollInterval, time.Until(deadline))
		if wait <= 0 {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return ErrRegistrationTimeout
}

// queryNetwork records operator and clock once registered.
func (s *Session) queryNetwork(ctx context.Context) error {
	resp := s.exchange(ctx, at.CmdOperator)
	if err := ctx.Err(); err != nil {
		return err
	}
	network, _ := ParseOperator(resp)

	resp = s.exchange(ctx, at.CmdClock)
	if err := ctx.Err(); err != nil {
		return err
	}
	network.Clock, _ = ParseClock(resp)
	s.state.SetNetwork(network)

	snap := s.state.Snapshot()
	s.logger.Info("instrument data",
		"operator", network.OperatorName,
		"operator_act", network.OperatorAccessTech,
		"clock", network.Clock,
		"rssi", snap.Signal.RSSI,
		"ber", snap.Signal.BER,
		"stat", snap.Registration.Status)
	return nil
}

// monitor reacts to registration URCs until ctx ends.
func (s *Session) monitor(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		urc, err := s.engine.ReceiveURC(ctx, s.config.URCTimeout, s.config.URCReadTimeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			s.logger.Warn("receive URC", "error", err)
			s.pause(ctx)
			continue
		}
		if urc == "" {
			continue
		}

		reg, ok := ParseRegistrationURC(urc)
		if !ok {
			s.logger.Debug("ignoring URC", "text", urc)
			continue
		}
		if !s.state.ApplyRegistration(reg) {
			continue
		}

		if err := s.refreshSignal(ctx); err != nil {
			return err
		}
		s.bus.Display.Put(events.Status(instrument.StatusName(reg.Status)))

		snap := s.state.Snapshot()
		s.logger.Info("registration changed",
			"stat", snap.Registration.Status,
			"act", snap.Registration.AccessTech,
			"tac", snap.Registration.TAC,
			"ci", snap.Registration.CellID,
			"rssi", snap.Signal.RSSI,
			"ber", snap.Signal.BER,
			"out_of_coverage", snap.OutOfCoverage)
	}
}

// pause backs off after a transport error so a dead link is not polled
// in a busy loop.
func (s *Session) pause(ctx context.Context) {
	timer := time.NewTimer(s.config.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
