// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package instrument_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Thermoquad/dutbench/pkg/instrument"
)

func reg(stat int) instrument.Registration {
	if instrument.IsRegistered(stat) {
		return instrument.Registration{Status: stat, AccessTech: 7, TAC: "1A2B", CellID: "00112233"}
	}
	return instrument.Registration{Status: stat, AccessTech: instrument.Unknown}
}

func TestNew(t *testing.T) {
	snap := instrument.New().Snapshot()

	assert.Equal(t, instrument.UnknownRegistration(), snap.Registration)
	assert.Equal(t, instrument.Unknown, snap.Registration.Status)
	assert.Equal(t, instrument.UnknownRSSI, snap.Signal.RSSI)
	assert.Equal(t, instrument.UnknownBER, snap.Signal.BER)
	assert.Equal(t, instrument.PhaseInit, snap.Phase)
	assert.Equal(t, "Initialising DUT", snap.RunningTask)
	assert.Zero(t, snap.OutOfCoverage)
	assert.False(t, snap.Shutdown)
}

func TestApplyRegistration_EdgeTriggered(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		expected int
	}{
		{"repeated out-of-coverage status counts once", []int{1, 2, 2, 2}, 1},
		{"moving within the class is not a new entry", []int{1, 2, 3, 4, 0}, 1},
		{"each re-entry counts", []int{1, 2, 1, 2, 5, 0}, 3},
		{"entry from unknown counts", []int{2}, 1},
		{"registered only", []int{1, 5, 1}, 0},
		{"statuses outside both classes", []int{1, 6, 7, 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := instrument.New()
			for _, stat := range tt.statuses {
				s.ApplyRegistration(reg(stat))
			}
			assert.Equal(t, tt.expected, s.OutOfCoverage())
		})
	}
}

func TestApplyRegistration_Changed(t *testing.T) {
	s := instrument.New()

	assert.True(t, s.ApplyRegistration(reg(1)))
	assert.False(t, s.ApplyRegistration(reg(1)), "identical reading is not a change")

	moved := reg(1)
	moved.CellID = "00112234"
	assert.True(t, s.ApplyRegistration(moved), "cell change")

	retech := moved
	retech.AccessTech = 9
	assert.True(t, s.ApplyRegistration(retech), "access tech change")

	assert.Equal(t, retech, s.Registration())
	assert.Zero(t, s.OutOfCoverage())
}

func TestApplyRegistration_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		statuses := rapid.SliceOf(rapid.IntRange(-1, 11)).Draw(t, "statuses")

		s := instrument.New()
		expected := 0
		prev := instrument.Unknown
		for _, stat := range statuses {
			if stat != prev && !instrument.IsOutOfCoverage(prev) && instrument.IsOutOfCoverage(stat) {
				expected++
			}
			s.ApplyRegistration(reg(stat))
			prev = stat
		}

		if got := s.OutOfCoverage(); got != expected {
			t.Fatalf("out of coverage count %d, want %d for %v", got, expected, statuses)
		}
	})
}

func TestApplyRegistration_Monotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		statuses := rapid.SliceOf(rapid.IntRange(-1, 11)).Draw(t, "statuses")

		s := instrument.New()
		last := 0
		for _, stat := range statuses {
			s.ApplyRegistration(reg(stat))
			count := s.OutOfCoverage()
			if count < last || count > last+1 {
				t.Fatalf("count jumped from %d to %d", last, count)
			}
			last = count
		}
	})
}

func TestSetRegistration_DoesNotCount(t *testing.T) {
	s := instrument.New()

	s.SetRegistration(reg(2))
	s.SetRegistration(reg(1))
	s.SetRegistration(reg(3))

	assert.Zero(t, s.OutOfCoverage())
	assert.Equal(t, 3, s.Registration().Status)
}

func TestSetters(t *testing.T) {
	s := instrument.New()

	s.UpdateIdentity(func(id *instrument.Identity) {
		id.IMSI = "001010123456789"
		id.SIMReady = true
	})
	s.SetSignal(instrument.Signal{RSSI: 15, BER: 3})
	s.SetNetwork(instrument.Network{OperatorMode: 0, OperatorFormat: 0, OperatorName: `"Test PLMN"`, OperatorAccessTech: "7"})
	s.SetPhase(instrument.PhaseSteadyStateMonitor)
	s.SetRunningTask("Running iperf data transfer")
	s.SetFinalResult("12.3 Mbits/sec")

	snap := s.Snapshot()
	assert.Equal(t, "001010123456789", snap.Identity.IMSI)
	assert.True(t, snap.Identity.SIMReady)
	assert.Equal(t, instrument.Signal{RSSI: 15, BER: 3}, snap.Signal)
	assert.Equal(t, `"Test PLMN"`, snap.Network.OperatorName)
	assert.Equal(t, instrument.PhaseSteadyStateMonitor, snap.Phase)
	assert.Equal(t, "Running iperf data transfer", snap.RunningTask)
	assert.Equal(t, "12.3 Mbits/sec", snap.FinalResult)
}

func TestShutdown(t *testing.T) {
	s := instrument.New()
	assert.False(t, s.ShutdownRequested())

	select {
	case <-s.Done():
		t.Fatal("done closed before shutdown")
	default:
	}

	s.RequestShutdown()
	s.RequestShutdown()

	assert.True(t, s.ShutdownRequested())
	assert.True(t, s.Snapshot().Shutdown)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after shutdown")
	}
}

func TestState_ConcurrentAccess(t *testing.T) {
	s := instrument.New()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.ApplyRegistration(reg(i % 6))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.SetRunningTask("task")
			s.SetSignal(instrument.Signal{RSSI: i % 32, BER: 0})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := s.Snapshot()
			assert.GreaterOrEqual(t, snap.OutOfCoverage, 0)
		}
	}()
	wg.Wait()
}
