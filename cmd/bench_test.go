// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/dialup"
	"github.com/Thermoquad/dutbench/pkg/display"
	"github.com/Thermoquad/dutbench/pkg/dut"
	"github.com/Thermoquad/dutbench/pkg/instrument"
	"github.com/Thermoquad/dutbench/pkg/report"
	"github.com/Thermoquad/dutbench/pkg/transport"
)

const iperfSummary = "[  5]   0.00-600.00 sec   902 MBytes  12.6 Mbits/sec    3             sender\n" +
	"[  5]   0.00-600.21 sec   898 MBytes  12.5 Mbits/sec                  receiver\n\niperf Done.\n"

type frameRecorder struct {
	mu     sync.Mutex
	frames []display.Frame
}

func (r *frameRecorder) Render(f display.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) networks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.frames {
		out = append(out, f.Network)
	}
	return out
}

func (r *frameRecorder) errorMessages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.frames {
		if f.IsError() {
			out = append(out, f.Error)
		}
	}
	return out
}

func healthyModem() *transport.ScriptedTransport {
	return transport.NewScriptedTransport().
		Reply(at.CmdAttention, "OK\r\n").
		Reply(at.CmdFullFunctionality, "OK\r\n").
		Reply(at.CmdEchoOff, "OK\r\n").
		Reply(at.CmdVerboseErrors, "OK\r\n").
		Reply(at.CmdSIMStatus, "+CPIN: READY\r\n\r\nOK\r\n").
		Reply(at.CmdIMSI, "\r\n001010123456789\r\n\r\nOK\r\n").
		Reply(at.CmdICCID, "+QCCID: 89445012345678901234\r\n\r\nOK\r\n").
		Reply(at.CmdIMEI, "\r\n867698040123456\r\n\r\nOK\r\n").
		Reply(at.CmdFirmwareVersion, "\r\nEG25GGBR07A08M2G\r\n\r\nOK\r\n").
		Reply(at.CmdSignalQuality, "+CSQ: 15,3\r\n\r\nOK\r\n").
		Reply(at.CmdEnableRegistration, "OK\r\n").
		Reply(at.CmdRegistrationStatus, "+CEREG: 2,1,\"1A2B\",\"00112233\",7\r\n\r\nOK\r\n").
		Reply(at.CmdOperator, "+COPS: 0,0,\"Test PLMN\",7\r\n\r\nOK\r\n").
		Reply(at.CmdClock, "+CCLK: \"24/05/01,12:34:56+08\"\r\n\r\nOK\r\n")
}

// fakeLink answers the dial-up commands like a working PPP link.
func fakeLink(_ context.Context, command string) (string, error) {
	switch {
	case command == "ifconfig":
		return "ppp0: flags=4305<UP,POINTOPOINT,RUNNING>\n", nil
	case command == "ifconfig ppp0":
		return "        inet 10.64.64.64  netmask 255.255.255.255\n", nil
	case strings.HasPrefix(command, "iperf3 "):
		return iperfSummary, nil
	default:
		return "", nil
	}
}

func testBench(dialer transport.Dialer, exec dialup.Executor, r display.Renderer) *bench {
	return &bench{
		dialer:   dialer,
		executor: exec,
		renderer: r,
		session: dut.Config{
			CommandTimeout:     500 * time.Millisecond,
			EnableURCTimeout:   50 * time.Millisecond,
			RegistrationWindow: 2 * time.Second,
			PollInterval:       10 * time.Millisecond,
			URCTimeout:         100 * time.Millisecond,
			URCReadTimeout:     50 * time.Millisecond,
		},
		dialup: dialup.Config{
			RetryBackoff: time.Millisecond,
			DialSettle:   time.Millisecond,
			// Leaves the session time to reach monitoring and the display
			// time to draw before the run ends.
			GracePeriod: 300 * time.Millisecond,
		},
		displayInterval: 10 * time.Millisecond,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestBench_EndToEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	modem := healthyModem()
	dialer := transport.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(modem, nil)
	exec := dialup.NewMockExecutor(ctrl)
	exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(fakeLink).AnyTimes()
	rec := &frameRecorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b := testBench(dialer, exec, rec)
	snap, err := b.run(ctx)

	require.NoError(t, err)
	assert.Equal(t, instrument.PhaseTerminated, snap.Phase)
	assert.True(t, snap.Shutdown)
	assert.True(t, modem.Closed())
	assert.Contains(t, rec.networks(), "Registered on Network")
	assert.NotZero(t, b.stats.Snapshot().Commands)

	rep := report.FromSnapshot(snap)
	assert.Equal(t, "89445012345678901234", rep.ICCID)
	assert.Equal(t, "12.5 Mbits/sec", rep.Throughput)
	assert.Equal(t, "\"Test PLMN\"", rep.Network)
	assert.Equal(t, "00112233", rep.CellID)
	assert.Equal(t, 15, rep.SignalQuality)
	assert.Zero(t, rep.OutOfCoverage)
	assert.Equal(t, "89445012345678901234_240501_123456_08.json", report.Key(rep, report.FormatJSON))
}

func TestBench_DialFailureReleasesDataSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	refused := errors.New("connection refused")
	dialer := transport.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(nil, refused)
	exec := dialup.NewMockExecutor(ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap, err := testBench(dialer, exec, &frameRecorder{}).run(ctx)

	assert.ErrorIs(t, err, refused)
	assert.NotErrorIs(t, err, context.Canceled)
	assert.Equal(t, instrument.PhaseFailed, snap.Phase)
	assert.Empty(t, snap.FinalResult)
}

func TestBench_ChannelNotResponding(t *testing.T) {
	ctrl := gomock.NewController(t)
	silent := transport.NewScriptedTransport().Reply(at.CmdAttention, "")
	dialer := transport.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(silent, nil)
	exec := dialup.NewMockExecutor(ctrl)

	rec := &frameRecorder{}
	b := testBench(dialer, exec, rec)
	b.session.CommandTimeout = 20 * time.Millisecond

	snap, err := b.run(context.Background())

	assert.ErrorIs(t, err, dut.ErrChannelNotResponding)
	assert.Equal(t, instrument.PhaseFailed, snap.Phase)
	assert.Equal(t, 5, silent.Count(at.CmdAttention))
	assert.Equal(t, []string{"AT", "AT", "AT", "AT", "AT"}, silent.Written())
	assert.Equal(t, []string{dut.MsgChannelNotWorking}, rec.errorMessages())
}

func TestBench_ThroughputRetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := transport.NewMockDialer(ctrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(healthyModem(), nil)
	exec := dialup.NewMockExecutor(ctrl)
	exec.EXPECT().Execute(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, command string) (string, error) {
		if strings.HasPrefix(command, "iperf3 ") {
			return "iperf3: error - unable to connect to server: Connection refused\n", nil
		}
		return fakeLink(ctx, command)
	}).AnyTimes()
	rec := &frameRecorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, err := testBench(dialer, exec, rec).run(ctx)

	assert.ErrorIs(t, err, dialup.ErrThroughputRetriesExhausted)
	assert.Empty(t, snap.FinalResult)
	assert.Equal(t, []string{dialup.MsgThroughputFailed}, rec.errorMessages())
}

func TestBench_CanceledDuringBootDelay(t *testing.T) {
	ctrl := gomock.NewController(t)
	dialer := transport.NewMockDialer(ctrl)
	exec := dialup.NewMockExecutor(ctrl)

	b := testBench(dialer, exec, &frameRecorder{})
	b.bootDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	_, err := b.run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPublishReport(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ReportDir: dir}
	rep := report.Report{ICCID: "8944", TestTime: "\"24/05/01,12:34:56+08\"\r"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, publishReport(context.Background(), cfg, report.FormatCBOR, rep, logger))

	data, err := os.ReadFile(filepath.Join(dir, "8944_240501_123456_08.cbor"))
	require.NoError(t, err)
	got, err := report.Decode(data, report.FormatCBOR)
	require.NoError(t, err)
	assert.Equal(t, rep, got)
}

func TestPublishReport_NoIdentity(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{ReportDir: dir, Upload: true}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NoError(t, publishReport(context.Background(), cfg, report.FormatJSON, report.Report{}, logger))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, report.Report{ICCID: "8944", OutOfCoverage: 3}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "{\n    \"SIM ICCID\": \"8944\""), out)
	assert.Contains(t, out, "\"Out of Coverage Count\": 3")
}

func TestPrintURCs(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 5, 1, 12, 34, 56, 0, time.UTC)

	printURCs(&buf, now, "\r\n+CEREG: 2,1,\"1A2B\",\"00112233\",7\r\n+CEREG: 3\r\nRDY\r\n")

	assert.Equal(t,
		"[12:34:56.000] urc   +CEREG: 2,1,\"1A2B\",\"00112233\",7 (Registered on Network, tac=1A2B ci=00112233 act=E-UTRAN)\n"+
			"[12:34:56.000] urc   +CEREG: 3 (Registration Denied)\n"+
			"[12:34:56.000] data  RDY\n",
		buf.String())
}
