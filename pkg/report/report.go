// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package report builds the final bench report and hands it to an object
// store.
package report

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/dutbench/pkg/instrument"
)

// DefaultBucket is where reports are uploaded unless configured
// otherwise.
const DefaultBucket = "lte-performance-results"

// Report is the record produced at the end of a bench run. Field names on
// the wire are the keys existing result consumers read.
type Report struct {
	ICCID         string `json:"SIM ICCID" cbor:"SIM ICCID"`
	IMSI          string `json:"SIM IMSI" cbor:"SIM IMSI"`
	Firmware      string `json:"FW Version" cbor:"FW Version"`
	IMEI          string `json:"IMEI" cbor:"IMEI"`
	SignalQuality int    `json:"Signal Quality" cbor:"Signal Quality"`
	Network       string `json:"Network" cbor:"Network"`
	TrackingArea  string `json:"Network Tracking Area" cbor:"Network Tracking Area"`
	CellID        string `json:"Network Cell ID" cbor:"Network Cell ID"`
	TestTime      string `json:"Test Time" cbor:"Test Time"`
	Throughput    string `json:"Throughput" cbor:"Throughput"`
	OutOfCoverage int    `json:"Out of Coverage Count" cbor:"Out of Coverage Count"`
}

// FromSnapshot collects the report fields from the final state.
func FromSnapshot(snap instrument.Snapshot) Report {
	return Report{
		ICCID:         snap.Identity.ICCID,
		IMSI:          snap.Identity.IMSI,
		Firmware:      snap.Identity.Firmware,
		IMEI:          snap.Identity.IMEI,
		SignalQuality: snap.Signal.RSSI,
		Network:       snap.Network.OperatorName,
		TrackingArea:  snap.Registration.TAC,
		CellID:        snap.Registration.CellID,
		TestTime:      snap.Network.Clock,
		Throughput:    snap.FinalResult,
		OutOfCoverage: snap.OutOfCoverage,
	}
}

var timeReplacer = strings.NewReplacer(
	"/", "",
	",", "_",
	"-", "_",
	":", "",
	"+", "_",
)

// SanitizeTime turns a modem clock string such as "24/05/01,12:34:56+08"
// into a file name fragment (240501_123456_08).
func SanitizeTime(clock string) string {
	return timeReplacer.Replace(strings.Trim(clock, "\"\r"))
}

// Key returns the object key for the report: <ICCID>_<test time>.<ext>.
func Key(r Report, format Format) string {
	return fmt.Sprintf("%s_%s.%s", r.ICCID, SanitizeTime(r.TestTime), format.Extension())
}
