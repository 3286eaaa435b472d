// Package uart is the early, busy-wait PL011 driver the VMM core treats as
// an external collaborator: raw MMIO character output before (and
// immediately after) the MMU comes on. There is no interrupt-driven
// transmission and no ring buffer - neither exists before the MMU is
// enabled, and nothing in this core runs long enough after enable to need
// them.
package uart

import "vmmcore/internal/asm"

// Device is a PL011 UART accessed through a fixed MMIO base.
type Device struct {
	base uintptr
}

// New returns a Device for the PL011 instance at base.
func New(base uintptr) *Device {
	return &Device{base: base}
}

// Init runs the PL011 init sequence (disable, configure 8N1+FIFO, re-enable).
//
//go:nosplit
func (d *Device) Init() {
	asm.UartInitPl011(d.base)
}

// Base returns the device's current MMIO base.
func (d *Device) Base() uintptr {
	return d.base
}

// Rebase repoints the device at a new MMIO base without touching hardware
// state. The continuation routine calls this exactly once, after its
// probe write to the virtual alias, to move the process-wide UART pointer
// from physical to virtual addressing.
//
//go:nosplit
func (d *Device) Rebase(base uintptr) {
	d.base = base
}

//go:nosplit
func (d *Device) Putc(c byte) {
	asm.UartPutcPl011(d.base, c)
}

//go:nosplit
func (d *Device) Puts(s string) {
	for i := 0; i < len(s); i++ {
		d.Putc(s[i])
	}
}

const hexDigits = "0123456789abcdef"

//go:nosplit
func (d *Device) PutHex64(v uint64) {
	d.Puts("0x")
	for shift := 60; shift >= 0; shift -= 4 {
		d.Putc(hexDigits[(v>>uint(shift))&0xF])
	}
}

//go:nosplit
func (d *Device) PutHex32(v uint32) {
	d.Puts("0x")
	for shift := 28; shift >= 0; shift -= 4 {
		d.Putc(hexDigits[(v>>uint(shift))&0xF])
	}
}

// Tag emits a single stage marker tag, e.g. "IMPL", "UART:OK", "MMU:START",
// or a numeric checkpoint. These are the sole post-mortem trail for
// silent-death scenarios during bring-up.
//
//go:nosplit
func (d *Device) Tag(tag string) {
	d.Puts(tag)
	d.Puts("\r\n")
}
