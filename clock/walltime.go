package clock

import "rtcsched/cmos"

// WallTime is a stable snapshot of the CMOS clock: hours in [0,23],
// minutes and seconds in [0,59].
type WallTime struct {
	Hours   int
	Minutes int
	Seconds int
}

// Equal reports whether t and other name the same second.
func (t WallTime) Equal(other WallTime) bool {
	return t.Hours == other.Hours && t.Minutes == other.Minutes && t.Seconds == other.Seconds
}

// Read samples chip's seconds/minutes/hours registers, retrying across
// the chip's asynchronous update window until two consecutive snapshots
// agree, then decodes the result according to register B's format bits.
//
// This is spec.md §4.2's algorithm verbatim: wait out update-in-progress,
// snapshot, wait it out again, snapshot again, accept only if both
// snapshots match field for field.
func Read(chip *cmos.Chip) WallTime {
	var seconds, minutes, hours byte

	for {
		for chip.ReadRegister(cmos.RegA)&cmos.RegAUpdateInProgress != 0 {
		}
		s1 := chip.ReadRegister(cmos.RegSeconds)
		m1 := chip.ReadRegister(cmos.RegMinutes)
		h1 := chip.ReadRegister(cmos.RegHours)

		for chip.ReadRegister(cmos.RegA)&cmos.RegAUpdateInProgress != 0 {
		}
		s2 := chip.ReadRegister(cmos.RegSeconds)
		m2 := chip.ReadRegister(cmos.RegMinutes)
		h2 := chip.ReadRegister(cmos.RegHours)

		if s1 == s2 && m1 == m2 && h1 == h2 {
			seconds, minutes, hours = s2, m2, h2
			break
		}
	}

	regB := chip.ReadRegister(cmos.RegB)

	isPM := hours&cmos.HoursPMFlag != 0
	hours &^= cmos.HoursPMFlag

	var s, m, h int
	if regB&cmos.RegBBinaryMode != 0 {
		s, m, h = int(seconds), int(minutes), int(hours)
	} else {
		s, m, h = DecodeBCD(seconds), DecodeBCD(minutes), DecodeBCD(hours)
	}

	// 12-hour PM to 24-hour: (h + 12) % 24, never the (h + 12) & 24 form
	// one revision of the original source contains — see spec.md §9.
	if regB&cmos.RegB24HourMode == 0 && isPM {
		h = (h + 12) % 24
	}

	return WallTime{Hours: h, Minutes: m, Seconds: s}
}
