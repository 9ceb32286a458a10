// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package display

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Renderer draws frames. Render is called from the display task only.
type Renderer interface {
	Render(Frame) error
}

// TextRenderer writes each new frame to w as styled text. Frames equal
// to the previous one are skipped.
type TextRenderer struct {
	w    io.Writer
	mu   sync.Mutex
	last string

	timeStyle   lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

func NewTextRenderer(w io.Writer) *TextRenderer {
	r := lipgloss.NewRenderer(w)
	return &TextRenderer{
		w: w,
		timeStyle: r.NewStyle().
			Foreground(lipgloss.Color("241")),
		statusStyle: r.NewStyle().
			Foreground(lipgloss.Color("#00FF00")),
		errorStyle: r.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true),
	}
}

func (t *TextRenderer) Render(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	text := f.Text()
	if text == t.last {
		return nil
	}
	t.last = text

	style := t.statusStyle
	if f.IsError() {
		style = t.errorStyle
	}
	_, err := fmt.Fprintf(t.w, "%s\n%s\n\n",
		t.timeStyle.Render(time.Now().Format("01/02/06 15:04:05.000")),
		style.Render(text))
	return err
}
