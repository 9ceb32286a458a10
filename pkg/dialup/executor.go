// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

//go:generate go tool mockgen -source=executor.go -destination=mock_executor.go -package=dialup

import (
	"context"
	"os/exec"
)

// Executor runs a shell command line and returns its standard output.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// ShellExecutor runs commands through /bin/sh.
type ShellExecutor struct {
	Shell string // defaults to /bin/sh
}

func (e ShellExecutor) Execute(ctx context.Context, command string) (string, error) {
	shell := e.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	out, err := exec.CommandContext(ctx, shell, "-c", command).Output()
	return string(out), err
}
