// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

const readChunkSize = 256

// lineTransport frames an io.ReadWriteCloser into lines.
//
// A single goroutine reads the connection and hands chunks over a channel,
// so ReadLine can wait for data with a timer regardless of whether the
// underlying connection supports read deadlines.
type lineTransport struct {
	rwc io.ReadWriteCloser

	chunks  chan []byte
	done    chan struct{}
	readErr error // set by readLoop before chunks is closed

	// buf holds bytes received but not yet returned; only touched by
	// the ReadLine caller.
	buf []byte

	mu     sync.Mutex
	closed bool
}

// NewLineTransport wraps an already open connection. It starts the
// background reader immediately.
func NewLineTransport(rwc io.ReadWriteCloser) Transport {
	t := &lineTransport{
		rwc:    rwc,
		chunks: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *lineTransport) readLoop() {
	defer close(t.chunks)

	buf := make([]byte, readChunkSize)
	for {
		n, err := t.rwc.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case t.chunks <- data:
			case <-t.done:
				return
			}
		}
		if err != nil {
			t.readErr = err
			return
		}
	}
}

func (t *lineTransport) WriteLine(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrConnectionClosed
	}
	if _, err := t.rwc.Write([]byte(text + CRLF)); err != nil {
		return err
	}
	return nil
}

func (t *lineTransport) ReadLine(timeout time.Duration) (string, error) {
	if line, ok := t.takeLine(); ok {
		return line, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case data, ok := <-t.chunks:
			if !ok {
				if rest := t.takeAll(); rest != "" {
					return rest, nil
				}
				return "", t.readError()
			}
			t.buf = append(t.buf, data...)
			if line, ok := t.takeLine(); ok {
				return line, nil
			}

		case <-timer.C:
			return t.takeAll(), nil
		}
	}
}

func (t *lineTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return t.rwc.Close()
}

// takeLine removes and returns the first complete line from buf.
func (t *lineTransport) takeLine() (string, bool) {
	i := bytes.IndexByte(t.buf, '\n')
	if i < 0 {
		return "", false
	}
	line := string(t.buf[:i+1])
	t.buf = t.buf[i+1:]
	return line, true
}

func (t *lineTransport) takeAll() string {
	rest := string(t.buf)
	t.buf = t.buf[:0]
	return rest
}

func (t *lineTransport) readError() error {
	if t.readErr == nil || errors.Is(t.readErr, io.EOF) {
		return ErrConnectionClosed
	}

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}
	return t.readErr
}
