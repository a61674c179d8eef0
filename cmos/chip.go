package cmos

import "sync"

// Chip is an in-process stand-in for a real CMOS/RTC chip: a register
// file addressed through an index port and a data port, guarded by a
// single mutex the way the kernel's DisableInts/RestoreInts pair would
// guard a real index-then-data access against a concurrent interrupt
// handler touching the same ports.
//
// A portable Go module has no real ports to bang on, so Chip plays the
// role the host kernel's inb/outb primitives would play against real
// silicon — the same part devices.RTCDevice.HandleIO plays inside the
// teacher's KVM emulator.
type Chip struct {
	mu        sync.Mutex
	registers [128]byte
	index     byte
}

// NewChip returns a Chip with registers at their power-on defaults:
// 24-hour, BCD mode, no interrupts enabled yet.
func NewChip() *Chip {
	c := &Chip{}
	c.registers[RegB] = RegB24HourMode
	return c
}

// ReadRegister reads register reg. The index-then-data access happens
// under the chip's lock, so a concurrent WriteRegister cannot observe a
// half-updated index.
func (c *Chip) ReadRegister(reg byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = reg
	return c.readLocked(reg)
}

// WriteRegister writes val to register reg under the chip's lock.
func (c *Chip) WriteRegister(reg byte, val byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = reg
	c.writeLocked(reg, val)
}

func (c *Chip) readLocked(reg byte) byte {
	if reg == RegC {
		// Register C's flag bits are cleared on read, same as real
		// hardware (and devices.RTCDevice.readDataRegister).
		val := c.registers[RegC]
		c.registers[RegC] = 0
		return val
	}
	return c.registers[reg]
}

func (c *Chip) writeLocked(reg byte, val byte) {
	if reg == RegA {
		// UIP is read-only; never let a write set it.
		val &^= RegAUpdateInProgress
	}
	c.registers[reg] = val
}

// Configure1024Hz programs register A's divider for 1024 periodic
// interrupts per second, per spec.md §4.7 step 4.
func (c *Chip) Configure1024Hz() {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := c.registers[RegA]
	a &^= regADividerMask
	a |= regADivider1024Hz
	c.registers[RegA] = a
}

// EnablePeriodicInterrupt sets register B's periodic-interrupt-enable
// bit, per spec.md §4.7 step 5.
func (c *Chip) EnablePeriodicInterrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers[RegB] |= RegBPeriodicIntEnable
}

// SetRegisterB replaces register B wholesale. Exposed for tests that
// need to force 12-hour or binary mode without going through the
// port-pair API.
func (c *Chip) SetRegisterB(val byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers[RegB] = val
}

// SetTime writes raw (not yet format-converted) seconds/minutes/hours
// register values. Used by tests to stage a known wall-clock snapshot;
// a real chip would have these driven by its own oscillator.
func (c *Chip) SetTime(seconds, minutes, hours byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registers[RegSeconds] = seconds
	c.registers[RegMinutes] = minutes
	c.registers[RegHours] = hours
}

// RaiseTick models one periodic-interrupt pulse from the chip: it sets
// register C's periodic and IRQ flags and invokes raiser.RaiseIRQ on the
// given line, mirroring devices.RTCDevice.Tick in the teacher repo. If
// register B's periodic-interrupt-enable bit is clear, it does nothing.
func (c *Chip) RaiseTick(raiser InterruptRaiser, line uint8) {
	c.mu.Lock()
	enabled := c.registers[RegB]&RegBPeriodicIntEnable != 0
	if enabled {
		c.registers[RegC] |= RegCPeriodicFlag | RegCIRQFlag
	}
	c.mu.Unlock()

	if enabled && raiser != nil {
		raiser.RaiseIRQ(line)
	}
}
