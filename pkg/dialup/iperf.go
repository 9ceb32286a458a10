// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dialup

import (
	"regexp"
	"strings"
)

var (
	reBitrate = regexp.MustCompile(`([\d.]+)\s+([KMGT]?bits/sec)`)
	reInet    = regexp.MustCompile(`\binet (\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})\b`)
)

// ParseThroughput extracts "<value> <unit>" from iperf3 client output.
// The receiver summary is preferred; otherwise the last line carrying a
// bitrate is used.
func ParseThroughput(output string) (string, bool) {
	var fallback string
	for _, line := range strings.Split(output, "\n") {
		m := reBitrate.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		result := m[1] + " " + m[2]
		if strings.Contains(line, "receiver") {
			return result, true
		}
		fallback = result
	}
	return fallback, fallback != ""
}

// FindIPAddress returns the IPv4 address from `ifconfig <iface>` output.
func FindIPAddress(output string) (string, bool) {
	m := reInet.FindStringSubmatch(output)
	if m == nil {
		return "", false
	}
	return m[1], true
}
