// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package instrument

import "fmt"

// Registration status values reported by +CEREG (3GPP TS 27.007).
const (
	StatNotRegistered     = 0
	StatRegisteredHome    = 1
	StatSearching         = 2
	StatDenied            = 3
	StatUnknown           = 4
	StatRegisteredRoaming = 5
)

// Unknown marks a numeric registration field that has not been reported.
const Unknown = -1

var statusNames = [...]string{
	"No Connection",
	"Registered on Network",
	"Searching for Network",
	"Registration Denied",
	"Registration Unknown",
	"Registration Roaming",
	"Registered SMS Only",
	"Registered SMS and Data",
	"Emergency Calls Only",
	"Registered CSFB Only",
	"Registered CSFB SMS Only",
	"Registered CSFB SMS and Data",
}

// StatusName returns the display name for a registration status. An
// unknown status reads as "No Connection".
func StatusName(stat int) string {
	if stat < 0 {
		stat = StatNotRegistered
	}
	if stat >= len(statusNames) {
		return fmt.Sprintf("Status %d", stat)
	}
	return statusNames[stat]
}

// AccessTechName returns the radio access technology for a +CEREG <AcT>.
func AccessTechName(act int) string {
	switch act {
	case Unknown:
		return "-"
	case 0:
		return "GSM"
	case 2:
		return "UTRAN"
	case 3:
		return "GSM/EGPRS"
	case 4:
		return "UTRAN/HSDPA"
	case 5:
		return "UTRAN/HSUPA"
	case 6:
		return "UTRAN/HSPA"
	case 7:
		return "E-UTRAN"
	case 8:
		return "EC-GSM-IoT"
	case 9:
		return "E-UTRAN NB-S1"
	default:
		return fmt.Sprintf("AcT %d", act)
	}
}

// IsRegistered reports whether stat allows data traffic (home or roaming).
func IsRegistered(stat int) bool {
	return stat == StatRegisteredHome || stat == StatRegisteredRoaming
}

// IsOutOfCoverage reports whether stat belongs to the out-of-coverage
// class {0,2,3,4}.
func IsOutOfCoverage(stat int) bool {
	switch stat {
	case StatNotRegistered, StatSearching, StatDenied, StatUnknown:
		return true
	default:
		return false
	}
}
