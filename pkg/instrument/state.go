// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package instrument holds the state shared by the bench tasks: the DUT
// session writes it, the data session adds its results, and the display
// polls snapshots of it.
package instrument

import (
	"sync"
)

// Phase is the session state machine phase, kept for display.
type Phase string

const (
	PhaseInit               Phase = "Init"
	PhaseVerifyChannel      Phase = "VerifyChannel"
	PhaseConfigure          Phase = "Configure"
	PhaseWaitRegistration   Phase = "WaitRegistration"
	PhaseQueryNetwork       Phase = "QueryNetwork"
	PhaseSteadyStateMonitor Phase = "SteadyStateMonitor"
	PhaseFailed             Phase = "Failed"
	PhaseTerminated         Phase = "Terminated"
)

// Signal quality sentinels stored when +CSQ cannot be parsed.
const (
	UnknownRSSI = 199
	UnknownBER  = 99
)

// Registration is the network registration as reported by +CEREG.
type Registration struct {
	Status     int    // Unknown when absent
	AccessTech int    // Unknown when absent
	TAC        string // "" when absent
	CellID     string // "" when absent
}

// UnknownRegistration is the registration before any report.
func UnknownRegistration() Registration {
	return Registration{Status: Unknown, AccessTech: Unknown}
}

// Registered reports whether the status allows advancing past
// registration wait.
func (r Registration) Registered() bool {
	return IsRegistered(r.Status)
}

// Identity is the SIM and modem identity plus the configuration flags
// confirmed during initialization.
type Identity struct {
	IMSI     string
	ICCID    string
	IMEI     string
	Firmware string

	FullFunctionality bool
	EchoOff           bool
	VerboseErrors     bool
	SIMReady          bool
}

// Signal is the last +CSQ reading.
type Signal struct {
	RSSI int // 0-31, 99 or UnknownRSSI when unknown
	BER  int // 0-7, UnknownBER when unknown
}

// Network holds operator and clock details queried once registered.
type Network struct {
	OperatorMode       int // Unknown when absent
	OperatorFormat     int // Unknown when absent
	OperatorName       string
	OperatorAccessTech string
	Clock              string
}

// Snapshot is a point-in-time copy of the State.
type Snapshot struct {
	Registration  Registration
	OutOfCoverage int

	Identity Identity
	Signal   Signal
	Network  Network

	Phase       Phase
	RunningTask string
	FinalResult string
	Shutdown    bool
}

// State is the shared instrument record. All methods are safe for
// concurrent use.
type State struct {
	mu sync.RWMutex

	registration  Registration
	outOfCoverage int

	identity Identity
	signal   Signal
	network  Network

	phase       Phase
	runningTask string
	finalResult string

	shutdownOnce sync.Once
	done         chan struct{}
}

// New creates the state as it is before the session starts.
func New() *State {
	return &State{
		registration: UnknownRegistration(),
		signal:       Signal{RSSI: UnknownRSSI, BER: UnknownBER},
		network:      Network{OperatorMode: Unknown, OperatorFormat: Unknown},
		phase:        PhaseInit,
		runningTask:  "Initialising DUT",
		done:         make(chan struct{}),
	}
}

// Snapshot returns a copy of every field.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Registration:  s.registration,
		OutOfCoverage: s.outOfCoverage,
		Identity:      s.identity,
		Signal:        s.signal,
		Network:       s.network,
		Phase:         s.phase,
		RunningTask:   s.runningTask,
		FinalResult:   s.finalResult,
		Shutdown:      s.ShutdownRequested(),
	}
}

// SetRegistration stores a registration reading without change
// detection. Used while waiting for the first registration.
func (s *State) SetRegistration(r Registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registration = r
}

// ApplyRegistration stores r and reports whether any field differed from
// the stored reading. The out-of-coverage counter is incremented when the
// status enters the out-of-coverage class from outside of it; moving
// between two out-of-coverage statuses is not a new entry.
func (s *State) ApplyRegistration(r Registration) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.registration
	if prev == r {
		return false
	}
	if prev.Status != r.Status && !IsOutOfCoverage(prev.Status) && IsOutOfCoverage(r.Status) {
		s.outOfCoverage++
	}
	s.registration = r
	return true
}

// Registration returns the stored registration.
func (s *State) Registration() Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registration
}

// OutOfCoverage returns the number of entries into the out-of-coverage
// class.
func (s *State) OutOfCoverage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outOfCoverage
}

// UpdateIdentity applies fn to the identity under the write lock.
func (s *State) UpdateIdentity(fn func(*Identity)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.identity)
}

// SetSignal stores a signal quality reading.
func (s *State) SetSignal(sig Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signal = sig
}

// SetNetwork stores the operator and clock details.
func (s *State) SetNetwork(n Network) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.network = n
}

func (s *State) SetPhase(p Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
}

func (s *State) SetRunningTask(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runningTask = task
}

func (s *State) SetFinalResult(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalResult = result
}

// RequestShutdown raises the global shutdown flag. Calls after the first
// have no effect.
func (s *State) RequestShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.done)
	})
}

// ShutdownRequested reports whether RequestShutdown has been called.
func (s *State) ShutdownRequested() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when shutdown is requested.
func (s *State) Done() <-chan struct{} {
	return s.done
}
