// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat accepts "json" or "cbor", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatCBOR:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (f Format) Extension() string {
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatCBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// Encode serializes r. JSON is indented with four spaces.
func Encode(r Report, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return json.MarshalIndent(r, "", "    ")
	case FormatCBOR:
		return cbor.Marshal(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Decode parses a report written by Encode.
func Decode(data []byte, f Format) (Report, error) {
	var r Report
	var err error
	switch f {
	case FormatJSON:
		err = json.Unmarshal(data, &r)
	case FormatCBOR:
		err = cbor.Unmarshal(data, &r)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return Report{}, fmt.Errorf("decode %s report: %w", f, err)
	}
	return r, nil
}
