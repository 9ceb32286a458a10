// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Thermoquad/dutbench/pkg/events"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

const iperfCommand = "iperf3 -c 209.58.159.68 -p 5201-5210 -t 600secs"

func fastConfig() Config {
	return Config{
		RetryBackoff: time.Millisecond,
		DialSettle:   time.Millisecond,
		GracePeriod:  time.Millisecond,
	}
}

func expectLinkUp(exec *MockExecutor) []any {
	return []any{
		exec.EXPECT().Execute(gomock.Any(), "sudo pon MyProvider").Return("", nil),
		exec.EXPECT().Execute(gomock.Any(), "plog").Return("local  IP address 10.64.64.64\n", nil),
		exec.EXPECT().Execute(gomock.Any(), "ifconfig").Return("eth0: ...\nppp0: flags=4305<UP>\n", nil),
		exec.EXPECT().Execute(gomock.Any(), "ifconfig ppp0").Return(ifconfigPPP, nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo ip route add 209.58.159.68/32 via 10.64.64.64").Return("", nil),
		exec.EXPECT().Execute(gomock.Any(), "ip route").Return("default via 192.168.1.1 dev eth0\n", nil),
	}
}

func TestDriver_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	calls := expectLinkUp(exec)
	calls = append(calls,
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return(iperfOutput, nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)
	gomock.InOrder(calls...)

	state := instrument.New()
	bus := events.NewBus()
	err := NewDriver(exec, state, bus, fastConfig()).Run(context.Background())

	require.NoError(t, err)
	snap := state.Snapshot()
	assert.Equal(t, "Test Completed", snap.RunningTask)
	assert.Equal(t, "12.5 Mbits/sec", snap.FinalResult)
	assert.Zero(t, bus.Display.Len())
}

func TestDriver_RetriesUntilResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	calls := expectLinkUp(exec)
	calls = append(calls,
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return("", errors.New("exit status 1")).Times(2),
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return(iperfOutput, nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)
	gomock.InOrder(calls...)

	state := instrument.New()
	err := NewDriver(exec, state, events.NewBus(), fastConfig()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "12.5 Mbits/sec", state.Snapshot().FinalResult)
}

func TestDriver_RetriesExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	calls := expectLinkUp(exec)
	calls = append(calls,
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return("iperf3: error - unable to connect to server\n", nil).Times(6),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)
	gomock.InOrder(calls...)

	state := instrument.New()
	bus := events.NewBus()
	err := NewDriver(exec, state, bus, fastConfig()).Run(context.Background())

	assert.ErrorIs(t, err, ErrThroughputRetriesExhausted)
	ev, ok := bus.Display.TryGet()
	require.True(t, ok)
	assert.Equal(t, events.Error(MsgThroughputFailed), ev)
	assert.Empty(t, state.Snapshot().FinalResult)
	assert.Equal(t, "Running iperf data transfer", state.Snapshot().RunningTask)
}

func TestDriver_DialFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	gomock.InOrder(
		exec.EXPECT().Execute(gomock.Any(), "sudo pon MyProvider").Return("", nil),
		exec.EXPECT().Execute(gomock.Any(), "plog").Return("Modem hangup\nConnection terminated.\n", nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)

	err := NewDriver(exec, instrument.New(), events.NewBus(), fastConfig()).Run(context.Background())
	assert.ErrorIs(t, err, ErrDialFailed)
}

func TestDriver_NoAddressSkipsRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	gomock.InOrder(
		exec.EXPECT().Execute(gomock.Any(), "sudo pon MyProvider").Return("", nil),
		exec.EXPECT().Execute(gomock.Any(), "plog").Return("", nil),
		exec.EXPECT().Execute(gomock.Any(), "ifconfig").Return("eth0: ...\n", nil),
		exec.EXPECT().Execute(gomock.Any(), "ifconfig ppp0").Return("", errors.New("exit status 1")),
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return(iperfOutput, nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)

	err := NewDriver(exec, instrument.New(), events.NewBus(), fastConfig()).Run(context.Background())
	assert.NoError(t, err)
}

func TestDriver_CanceledStillHangsUp(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	gomock.InOrder(
		exec.EXPECT().Execute(gomock.Any(), "sudo pon MyProvider").DoAndReturn(func(context.Context, string) (string, error) {
			cancel()
			return "", nil
		}),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").DoAndReturn(func(ctx context.Context, _ string) (string, error) {
			assert.NoError(t, ctx.Err(), "hang up must not inherit cancellation")
			return "", nil
		}),
	)

	config := fastConfig()
	config.DialSettle = time.Minute
	err := NewDriver(exec, instrument.New(), events.NewBus(), config).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTask_WaitsForStartSignal(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)
	calls := expectLinkUp(exec)
	calls = append(calls,
		exec.EXPECT().Execute(gomock.Any(), iperfCommand).Return(iperfOutput, nil),
		exec.EXPECT().Execute(gomock.Any(), "sudo poff MyProvider").Return("", nil),
	)
	gomock.InOrder(calls...)

	state := instrument.New()
	bus := events.NewBus()
	task := NewTask(exec, state, bus, fastConfig())

	done := make(chan error, 1)
	go func() { done <- task.Run(context.Background()) }()

	select {
	case <-done:
		t.Fatal("task ran before the start signal")
	case <-time.After(50 * time.Millisecond):
	}

	bus.DataReady.Put(events.StartSignal{})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}
	assert.Equal(t, "12.5 Mbits/sec", state.Snapshot().FinalResult)
}

func TestTask_CanceledBeforeStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := NewMockExecutor(ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewTask(exec, instrument.New(), events.NewBus(), fastConfig()).Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShellExecutor(t *testing.T) {
	out, err := ShellExecutor{}.Execute(context.Background(), "echo dutbench")
	require.NoError(t, err)
	assert.Equal(t, "dutbench\n", out)

	_, err = ShellExecutor{}.Execute(context.Background(), "exit 3")
	assert.Error(t, err)
}
