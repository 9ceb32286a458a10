// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package at implements the AT command exchange used to drive the DUT
// modem: command/response framing, unsolicited result code reads, and
// line classification for tooling.
package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Response Codes
	OK        = "OK"
	ERROR     = "ERROR"
	CmeError  = "+CME ERROR:"
	CmsError  = "+CMS ERROR:"
	NoCarrier = "NO CARRIER"

	// Reply markers
	CpinReady = "+CPIN: READY"

	// URCs (Unsolicited Result Codes)
	UrcRegistration   = "+CEREG:"
	UrcSignalStrength = "+CSQ:"
	UrcOperator       = "+COPS:"
	UrcClock          = "+CCLK:"
	UrcRing           = "RING"
)

// Commands sent by the bench session. Terminators are appended by the
// transport.
const (
	CmdAttention          = "AT"
	CmdFullFunctionality  = "AT+CFUN=1"
	CmdEchoOff            = "ATE0"
	CmdVerboseErrors      = "AT+CMEE=2"
	CmdSIMStatus          = "AT+CPIN?"
	CmdIMSI               = "AT+CIMI"
	CmdICCID              = "AT+QCCID"
	CmdIMEI               = "AT+CGSN"
	CmdFirmwareVersion    = "AT+CGMR"
	CmdSignalQuality      = "AT+CSQ"
	CmdEnableRegistration = "AT+CEREG=2"
	CmdRegistrationStatus = "AT+CEREG?"
	CmdOperator           = "AT+COPS?"
	CmdClock              = "AT+CCLK?"
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR
	TypeURC                       // Asynchronous notifications
	TypeData                      // Intermediate command output
	TypeEmpty                     // Blank separator lines
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
