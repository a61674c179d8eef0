// Package cmos emulates the MC146818-style CMOS/RTC register file that
// the scheduler's wall-clock reader and periodic interrupt source are
// built on top of.
package cmos

// Index/data port pair used to address the CMOS register file.
const (
	IndexPort uint16 = 0x70
	DataPort  uint16 = 0x71
)

// Register offsets used by this module. The full CMOS RAM is 128 bytes;
// only these are ever touched.
const (
	RegSeconds byte = 0x00
	RegMinutes byte = 0x02
	RegHours   byte = 0x04
	RegA       byte = 0x0A
	RegB       byte = 0x0B
	RegC       byte = 0x0C
)

// Register A bits.
const (
	RegAUpdateInProgress byte = 0x80 // UIP, read-only
	regADividerMask      byte = 0x0F
	regADivider1024Hz    byte = 0x06 // 1024 interrupts/sec
)

// Register B bits.
const (
	RegBDaylightSavings   byte = 0x01
	RegB24HourMode        byte = 0x02 // 1 = 24-hour mode, 0 = 12-hour mode
	RegBBinaryMode        byte = 0x04 // 1 = binary, 0 = BCD
	RegBSquareWave        byte = 0x08
	RegBUpdateIntEnable   byte = 0x10
	RegBAlarmIntEnable    byte = 0x20
	RegBPeriodicIntEnable byte = 0x40
	RegBSet               byte = 0x80
)

// Register C bits (read-only, cleared on read).
const (
	RegCUpdateFlag   byte = 0x10
	RegCAlarmFlag    byte = 0x20
	RegCPeriodicFlag byte = 0x40
	RegCIRQFlag      byte = 0x80
)

// HoursPMFlag is bit 7 of the hours register in 12-hour mode.
const HoursPMFlag byte = 0x80

// IntsPerSecond is the periodic interrupt rate this module programs the
// chip for: 1024 Hz, matching the source's RTC_INTS_SEC.
const IntsPerSecond = 1024

// RTCIRQLine is the IRQ line the CMOS chip raises on every periodic tick.
const RTCIRQLine uint8 = 8
