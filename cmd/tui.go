// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/dutbench/pkg/display"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// Log entry shown under the status box
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Messages
type tickMsg time.Time
type frameMsg display.Frame
type benchDoneMsg struct {
	err error
}

// tuiRenderer forwards frames from the display task to the TUI program.
type tuiRenderer struct {
	send func(tea.Msg)
}

func (r tuiRenderer) Render(f display.Frame) error {
	r.send(frameMsg(f))
	return nil
}

// TUI model
type model struct {
	connInfo      string
	started       time.Time
	now           time.Time
	frame         display.Frame
	hasFrame      bool
	spinner       spinner.Model
	log           []logEntry
	maxLogEntries int
	finished      bool
	err           error
	width         int
	height        int
	quitting      bool
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func initialModel(connInfo string) model {
	now := time.Now()
	return model{
		connInfo:      connInfo,
		started:       now,
		now:           now,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(warningStyle)),
		log:           make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// A held error frame is dismissed with any key.
		if m.finished {
			m.quitting = true
			return m, tea.Quit
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.now = time.Time(msg)
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case frameMsg:
		f := display.Frame(msg)
		switch {
		case f.IsError():
			m.addLogEntry(f.Error, true)
		case !m.hasFrame || f.Network != m.frame.Network:
			m.addLogEntry(f.Network, false)
			if f.Task != m.frame.Task {
				m.addLogEntry(f.Task, false)
			}
		case f.Task != m.frame.Task:
			m.addLogEntry(f.Task, false)
		}
		m.frame = f
		m.hasFrame = true

	case benchDoneMsg:
		m.finished = true
		m.err = msg.err
		if m.hasFrame && m.frame.IsError() {
			return m, nil
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("DUTBENCH - LTE BENCH TEST"))
	s.WriteString("\n")
	hint := "Press 'q' to quit"
	if m.finished {
		hint = "Finished, press any key to exit"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Elapsed: %s | %s",
		m.connInfo, m.now.Sub(m.started).Round(time.Second), hint)))
	s.WriteString("\n\n")

	if !m.hasFrame {
		s.WriteString(m.spinner.View() + warningStyle.Render(" Waiting for the DUT..."))
		s.WriteString("\n")
		return s.String()
	}

	s.WriteString(boxStyle.Render(m.statusView()))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.detailsView(m.frame.Snapshot)))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Events"))
	s.WriteString("\n")
	s.WriteString(m.logView())
	return s.String()
}

func (m model) statusView() string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(labelStyle.Render(fmt.Sprintf("%-12s", label)))
		s.WriteString(value)
		s.WriteString("\n")
	}

	row("Network:", valueStyle.Render(m.frame.Network))
	if m.frame.IsError() {
		row("Error!:", errorStyle.Render(m.frame.Error))
		return strings.TrimSuffix(s.String(), "\n")
	}

	task := valueStyle.Render(m.frame.Task)
	if !m.finished && m.frame.Throughput == "" {
		task = m.spinner.View() + " " + task
	}
	row("Task:", task)
	if m.frame.Throughput != "" {
		row("Throughput:", valueStyle.Render(m.frame.Throughput))
	}
	return strings.TrimSuffix(s.String(), "\n")
}

func (m model) detailsView(snap instrument.Snapshot) string {
	reg := snap.Registration
	lines := []string{
		fmt.Sprintf("ICCID: %s  IMSI: %s", orDash(snap.Identity.ICCID), orDash(snap.Identity.IMSI)),
		fmt.Sprintf("IMEI: %s  FW: %s", orDash(snap.Identity.IMEI), orDash(snap.Identity.Firmware)),
		fmt.Sprintf("RSSI: %d  BER: %d  RAT: %s", snap.Signal.RSSI, snap.Signal.BER, instrument.AccessTechName(reg.AccessTech)),
		fmt.Sprintf("TAC: %s  Cell: %s  Out of coverage: %d", orDash(reg.TAC), orDash(reg.CellID), snap.OutOfCoverage),
		fmt.Sprintf("Phase: %s", snap.Phase),
	}
	return headerStyle.Render(strings.Join(lines, "\n"))
}

func (m model) logView() string {
	// Header, status, details and margins take roughly 16 lines
	visible := m.height - 16
	if visible < 3 {
		visible = 3
	}
	entries := m.log
	if len(entries) > visible {
		entries = entries[len(entries)-visible:]
	}

	var s strings.Builder
	for _, e := range entries {
		ts := headerStyle.Render(e.timestamp.Format("15:04:05"))
		msg := valueStyle.Render(e.message)
		if e.isError {
			msg = errorStyle.Render(e.message)
		}
		s.WriteString(ts + " " + msg + "\n")
	}
	return s.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
