package cmos

// InterruptRaiser is implemented by whatever owns the interrupt
// controller line the CMOS chip is wired to. It mirrors the teacher's
// devices.InterruptRaiser contract (see core_engine/devices/serial.go in
// the teacher repo), narrowed to this module's single IRQ line.
type InterruptRaiser interface {
	RaiseIRQ(line uint8)
}

// InterruptRaiserFunc adapts a plain function to InterruptRaiser.
type InterruptRaiserFunc func(line uint8)

// RaiseIRQ implements InterruptRaiser.
func (f InterruptRaiserFunc) RaiseIRQ(line uint8) { f(line) }
