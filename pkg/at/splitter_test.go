// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package at_test

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Thermoquad/dutbench/pkg/at"
)

func scan(input string) []string {
	var tokens []string
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(at.Splitter)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	return tokens
}

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Signal quality reply",
			input:    "\r\n+CSQ: 15,3\r\n\r\nOK\r\n",
			expected: []string{"", "+CSQ: 15,3", "", "OK"},
		},
		{
			name:     "Registered CEREG query",
			input:    "+CEREG: 2,1,\"1A2B\",\"00112233\",7\r\nOK\r\n",
			expected: []string{"+CEREG: 2,1,\"1A2B\",\"00112233\",7", "OK"},
		},
		{
			name:     "Error reply",
			input:    "AT+CPIN?\r\n+CME ERROR: SIM not inserted\r\n",
			expected: []string{"AT+CPIN?", "+CME ERROR: SIM not inserted"},
		},
		{
			name:     "Trailing partial line",
			input:    "+CEREG: 1\r\n+CEREG: 2",
			expected: []string{"+CEREG: 1", "+CEREG: 2"},
		},
		{
			name:     "Empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scan(tt.input))
		})
	}
}

func TestSplitter_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`[A-Z0-9+:," ]{0,24}`), 1, 16).Draw(t, "lines")

		input := strings.Join(lines, at.CRLF) + at.CRLF

		got := scan(input)
		if len(got) != len(lines) {
			t.Fatalf("got %d tokens, want %d", len(got), len(lines))
		}
		for i := range lines {
			if got[i] != lines[i] {
				t.Fatalf("token %d: got %q, want %q", i, got[i], lines[i])
			}
		}
	})
}

func TestSplitLines(t *testing.T) {
	lines := at.SplitLines("\r\nRevision: EG25GGBR07A08M2G\r\n\r\nOK\r\n")
	assert.Equal(t, []string{"Revision: EG25GGBR07A08M2G", "OK"}, lines)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line     string
		expected at.ResponseType
	}{
		{"OK", at.TypeFinal},
		{"ERROR", at.TypeFinal},
		{"OK\r\n", at.TypeFinal},
		{"+CME ERROR: 10", at.TypeFinal},
		{"+CMS ERROR: 500", at.TypeFinal},
		{"NO CARRIER", at.TypeFinal},
		{"+CEREG: 1,\"1A2B\",\"00112233\",7", at.TypeURC},
		{"RING", at.TypeURC},
		{"+CSQ: 15,3", at.TypeData},
		{"867698040123456", at.TypeData},
		{"", at.TypeEmpty},
		{"\r\n", at.TypeEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, at.Classify(tt.line))
		})
	}
}

func TestResponseType_String(t *testing.T) {
	assert.Equal(t, "final", at.TypeFinal.String())
	assert.Equal(t, "urc", at.TypeURC.String())
	assert.Equal(t, "data", at.TypeData.String())
	assert.Equal(t, "empty", at.TypeEmpty.String())
	assert.Equal(t, "unknown", at.ResponseType(42).String())
}
