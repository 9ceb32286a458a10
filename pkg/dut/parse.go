// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dut

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Thermoquad/dutbench/pkg/at"
	"github.com/Thermoquad/dutbench/pkg/instrument"
)

var (
	reDigits = regexp.MustCompile(`(\d+)`)
	reICCID  = regexp.MustCompile(`\+QCCID: (\d+)`)
	reCGMR   = regexp.MustCompile(`(.+)[\r\n]+?OK`)
	reCSQ    = regexp.MustCompile(`\+CSQ: (\d+),(\d+)`)
	reCOPS   = regexp.MustCompile(`\+COPS: (\d+),(\d+),(.+),(\d+)`)
	reCCLK   = regexp.MustCompile(`\+CCLK: (.+)`)

	// +CEREG reply shapes, most specific first.
	reCeregQueryRegistered = regexp.MustCompile(`\+CEREG: (\d),(\d+),(.+),(.+),(\d+)`)
	reCeregURCRegistered   = regexp.MustCompile(`\+CEREG: (\d+),(.+),(.+),(\d+)`)
	reCeregQueryStatus     = regexp.MustCompile(`\+CEREG: \d,(\d+)`)
	reCeregURCStatus       = regexp.MustCompile(`\+CEREG: (\d+)`)
)

// hasOK reports whether a reply carries the final OK.
func hasOK(resp string) bool {
	return strings.Contains(resp, at.OK)
}

// ParseSIMReady reports whether the +CPIN? reply says READY.
func ParseSIMReady(resp string) bool {
	return strings.Contains(resp, at.CpinReady)
}

// ParseDigits returns the first run of digits, as used for the bare
// +CIMI and +CGSN replies.
func ParseDigits(resp string) (string, bool) {
	m := reDigits.FindStringSubmatch(resp)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func ParseICCID(resp string) (string, bool) {
	m := reICCID.FindStringSubmatch(resp)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseFirmware returns the line preceding the final OK of +CGMR.
func ParseFirmware(resp string) (string, bool) {
	m := reCGMR.FindStringSubmatch(resp)
	if m == nil {
		return "", false
	}
	fw := strings.TrimSpace(m[1])
	return fw, fw != ""
}

// ParseSignal parses +CSQ. On failure it returns the unknown sentinels
// together with ok=false.
func ParseSignal(resp string) (instrument.Signal, bool) {
	unknown := instrument.Signal{RSSI: instrument.UnknownRSSI, BER: instrument.UnknownBER}

	m := reCSQ.FindStringSubmatch(resp)
	if m == nil {
		return unknown, false
	}
	rssi, err1 := strconv.Atoi(m[1])
	ber, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return unknown, false
	}
	return instrument.Signal{RSSI: rssi, BER: ber}, true
}

// ParseRegistrationQuery parses the reply to AT+CEREG?. The registered
// shape <n>,<stat>,<tac>,<ci>,<act> is tried first; whatever it captures
// is kept as-is. Otherwise the <n>,<stat> shape sets only the status.
func ParseRegistrationQuery(resp string) (instrument.Registration, bool) {
	if m := reCeregQueryRegistered.FindStringSubmatch(resp); m != nil {
		return registered(m[2], m[3], m[4], m[5])
	}
	if m := reCeregQueryStatus.FindStringSubmatch(resp); m != nil {
		return statusOnly(m[1])
	}
	return instrument.UnknownRegistration(), false
}

// ParseRegistrationURC parses a +CEREG line seen while monitoring. Both
// query replies and unsolicited codes are accepted:
//
//	+CEREG: <n>,<stat>,<tac>,<ci>,<act>
//	+CEREG: <stat>,<tac>,<ci>,<act>
//	+CEREG: <n>,<stat>
//	+CEREG: <stat>
func ParseRegistrationURC(resp string) (instrument.Registration, bool) {
	if m := reCeregQueryRegistered.FindStringSubmatch(resp); m != nil {
		return registered(m[2], m[3], m[4], m[5])
	}
	if m := reCeregURCRegistered.FindStringSubmatch(resp); m != nil {
		return registered(m[1], m[2], m[3], m[4])
	}
	if m := reCeregQueryStatus.FindStringSubmatch(resp); m != nil {
		return statusOnly(m[1])
	}
	if m := reCeregURCStatus.FindStringSubmatch(resp); m != nil {
		return statusOnly(m[1])
	}
	return instrument.UnknownRegistration(), false
}

func registered(stat, tac, ci, act string) (instrument.Registration, bool) {
	s, err := strconv.Atoi(stat)
	if err != nil {
		return instrument.UnknownRegistration(), false
	}
	a, err := strconv.Atoi(act)
	if err != nil {
		a = instrument.Unknown
	}
	return instrument.Registration{
		Status:     s,
		AccessTech: a,
		TAC:        unquote(tac),
		CellID:     unquote(ci),
	}, true
}

func statusOnly(stat string) (instrument.Registration, bool) {
	s, err := strconv.Atoi(stat)
	if err != nil {
		return instrument.UnknownRegistration(), false
	}
	r := instrument.UnknownRegistration()
	r.Status = s
	return r, true
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// ParseOperator parses +COPS: <mode>,<format>,<oper>,<act>.
func ParseOperator(resp string) (instrument.Network, bool) {
	n := instrument.Network{OperatorMode: instrument.Unknown, OperatorFormat: instrument.Unknown}

	m := reCOPS.FindStringSubmatch(resp)
	if m == nil {
		return n, false
	}
	n.OperatorMode, _ = strconv.Atoi(m[1])
	n.OperatorFormat, _ = strconv.Atoi(m[2])
	n.OperatorName = m[3]
	n.OperatorAccessTech = m[4]
	return n, true
}

// ParseClock returns the +CCLK timestamp text, quotes and CR included, as
// the modem sent it.
func ParseClock(resp string) (string, bool) {
	m := reCCLK.FindStringSubmatch(resp)
	if m == nil {
		return "", false
	}
	return m[1], true
}
