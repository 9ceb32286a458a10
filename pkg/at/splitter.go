// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package at

import (
	"bufio"
	"bytes"
	"strings"
)

// Splitter tokenizes modem output by CRLF line endings. It has the
// signature of bufio.SplitFunc so it can be used with bufio.Scanner.
//
// Tokens do not include the terminator. Blank lines between replies are
// returned as empty tokens; callers that do not care should skip them.
// When atEOF is true any remaining data is returned as the final token.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		return i + len(CRLF), data[0:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter

// SplitLines breaks accumulated response text into its non-empty lines.
func SplitLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Split(Splitter)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Classify identifies the nature of a single line of modem output.
func Classify(line string) ResponseType {
	line = strings.TrimSpace(line)
	if line == "" {
		return TypeEmpty
	}

	switch line {
	case OK, ERROR, NoCarrier:
		return TypeFinal
	case UrcRing:
		return TypeURC
	}

	switch {
	case strings.HasPrefix(line, CmeError), strings.HasPrefix(line, CmsError):
		return TypeFinal
	case strings.HasPrefix(line, UrcRegistration):
		return TypeURC
	default:
		return TypeData
	}
}
