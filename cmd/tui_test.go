// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/dutbench/pkg/display"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

func statusFrameFor(network, task, throughput string) display.Frame {
	snap := instrument.New().Snapshot()
	snap.Identity.ICCID = "89445012345678901234"
	snap.Registration = instrument.Registration{Status: 1, AccessTech: 7, TAC: "1A2B", CellID: "00112233"}
	return display.Frame{Network: network, Task: task, Throughput: throughput, Snapshot: snap}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(model)
	require.True(t, ok)
	return mm, cmd
}

func TestModel_WaitingBeforeFirstFrame(t *testing.T) {
	m := initialModel("Serial: /dev/ttyUSB2 @ 921600 baud")

	view := m.View()
	assert.Contains(t, view, "DUTBENCH")
	assert.Contains(t, view, "Serial: /dev/ttyUSB2 @ 921600 baud")
	assert.Contains(t, view, "Waiting for the DUT")
}

func TestModel_StatusFrame(t *testing.T) {
	m := initialModel("test")

	m, cmd := update(t, m, frameMsg(statusFrameFor("Registered on Network", "Running iperf data transfer", "")))
	assert.Nil(t, cmd)

	view := m.View()
	assert.Contains(t, view, "Registered on Network")
	assert.Contains(t, view, "Running iperf data transfer")
	assert.Contains(t, view, "89445012345678901234")
	assert.Contains(t, view, "E-UTRAN")
	assert.NotContains(t, view, "Throughput:")
	require.Len(t, m.log, 2)
	assert.Equal(t, "Registered on Network", m.log[0].message)
	assert.Equal(t, "Running iperf data transfer", m.log[1].message)
}

func TestModel_LogsOnlyChanges(t *testing.T) {
	m := initialModel("test")
	f := statusFrameFor("Registered on Network", "Starting Dialup", "")

	m, _ = update(t, m, frameMsg(f))
	m, _ = update(t, m, frameMsg(f))
	m, _ = update(t, m, frameMsg(statusFrameFor("Registered on Network", "Test Completed", "12.6 Mbits/sec")))

	require.Len(t, m.log, 3)
	assert.Equal(t, "Test Completed", m.log[2].message)
	assert.Contains(t, m.View(), "12.6 Mbits/sec")
}

func TestModel_ErrorFrame(t *testing.T) {
	m := initialModel("test")
	f := statusFrameFor("No Connection", "", "")
	f.Error = "AT Channel not working"

	m, _ = update(t, m, frameMsg(f))

	view := m.View()
	assert.Contains(t, view, "Error!:")
	assert.Contains(t, view, "AT Channel not working")
	require.Len(t, m.log, 1)
	assert.True(t, m.log[0].isError)
}

func TestModel_LogIsBounded(t *testing.T) {
	m := initialModel("test")
	for i := 0; i < m.maxLogEntries+20; i++ {
		m.addLogEntry("entry", false)
	}
	assert.Len(t, m.log, m.maxLogEntries)
}

func TestModel_Quit(t *testing.T) {
	m := initialModel("test")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestModel_BenchDone(t *testing.T) {
	m := initialModel("test")
	failed := errors.New("registration timeout")

	m, cmd := update(t, m, benchDoneMsg{err: failed})

	assert.True(t, m.finished)
	assert.Equal(t, failed, m.err)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_BenchDoneHoldsErrorFrame(t *testing.T) {
	m := initialModel("test")
	f := statusFrameFor("No Connection", "", "")
	f.Error = "AT Channel not working"
	m, _ = update(t, m, frameMsg(f))

	m, cmd := update(t, m, benchDoneMsg{err: errors.New("channel not responding")})
	assert.Nil(t, cmd, "error frame stays on screen")
	assert.True(t, m.finished)

	view := m.View()
	assert.Contains(t, view, "AT Channel not working")
	assert.Contains(t, view, "press any key to exit")

	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
}

func TestModel_Tick(t *testing.T) {
	m := initialModel("test")
	later := m.started.Add(75 * time.Second)

	m, cmd := update(t, m, tickMsg(later))

	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Elapsed: 1m15s")
}

func TestTUIRenderer(t *testing.T) {
	var got []tea.Msg
	r := tuiRenderer{send: func(msg tea.Msg) { got = append(got, msg) }}
	f := statusFrameFor("Registered on Network", "Test Completed", "12.6 Mbits/sec")

	require.NoError(t, r.Render(f))

	require.Len(t, got, 1)
	assert.Equal(t, frameMsg(f), got[0])
}
