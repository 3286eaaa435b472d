package vmm

import (
	_ "unsafe" // for go:linkname

	"vmmcore/internal/asm"
	"vmmcore/internal/kernelerr"
	"vmmcore/internal/uart"
)

// activeContext and activeUART are the package's only process-wide cells;
// activeUART is the shared UART pointer the continuation rebases.
// continuationEntry is reached directly from assembly with no arguments,
// so it recovers its operands from here rather than through a normal call.
var (
	activeContext *Context
	activeUART    *uart.Device
)

// SetActive registers the context and UART device the continuation
// routine operates on. Call this once, before Enable.
func SetActive(c *Context, dev *uart.Device) {
	activeContext = c
	activeUART = dev
}

// continuationEntry is the actual branch target programmed into
// GetContinuationAddr. The go:linkname gives it the stable, package-
// independent symbol name the assembly region resolves against.
//
//go:linkname continuationEntry continuation_entry
//go:nosplit
func continuationEntry() {
	Continuation(activeUART, activeContext.cfg)
}

var (
	errL0Misaligned = &kernelerr.Error{Module: "enable", Message: "L0 table base not 4 KiB aligned"}
	errVerifyFailed = &kernelerr.Error{Module: "enable", Message: "a critical mapping is missing or not executable"}
	errVBARMismatch = &kernelerr.Error{Module: "enable", Message: "VBAR_EL1 does not match the installed vector-table mapping"}
)

// tcrValue builds TCR_EL1 per the component design: T0SZ/T1SZ for the
// configured VA width, 4 KiB granule on both halves, inner-shareable,
// write-back inner/outer cacheable walks, both halves enabled, IPS=40-bit,
// top-byte-ignore on both halves.
func tcrValue(cfg Config) uint64 {
	t0sz := t0szFor(cfg.VAWidth)
	var v uint64
	v |= t0sz << 0           // T0SZ
	v |= 1 << 8              // IRGN0 = write-back read/write-allocate
	v |= 1 << 10             // ORGN0
	v |= 3 << 12             // SH0 = inner shareable
	v |= 0 << 14             // TG0 = 4 KiB
	v |= t0sz << 16          // T1SZ
	v |= 1 << 24             // IRGN1
	v |= 1 << 26             // ORGN1
	v |= 3 << 28             // SH1 = inner shareable
	v |= 2 << 30             // TG1 = 4 KiB (TTBR1 granule encoding differs from TG0)
	v |= 2 << 32             // IPS = 40-bit
	v |= 1 << 37             // TBI0
	v |= 1 << 38             // TBI1
	return v
}

// Enable is the single MMU-enable entry point: there is no fast path that
// skips verification, so nothing can write SCTLR.M without every pre-check
// having passed first.
//
// Preconditions asserted: both L0 bases are 4 KiB aligned, VBAR_EL1
// matches the installed vector-table mapping, and every critical mapping
// verifies. If any of these fail, the M bit is never written and the
// function returns an error instead of calling into the one-shot assembly
// region - there is no retry path once that call is made.
func (c *Context) Enable(vbarSet uintptr) *kernelerr.Error {
	if c.ttbr0%pageSize != 0 || c.ttbr1%pageSize != 0 {
		return errL0Misaligned
	}
	// VBAR_EL1 only requires 2 KiB alignment, so compare the containing
	// page against what the installer mapped.
	if pageAlignDown(vbarSet) != c.vectorTableVirt {
		return errVBARMismatch
	}

	results := c.Verify()
	if !AllPassed(results) {
		return errVerifyFailed
	}

	tcr := tcrValue(c.cfg)

	// Single audited assembly region: writes MAIR/TCR/TTBRs, performs the
	// cache/TLB/barrier dance, sets SCTLR.{M,C,I}, and branches to the
	// continuation routine. It does not return to this call site.
	asm.EnableMMUTransition(uint64(c.ttbr0), uint64(c.ttbr1), mairValue, tcr, c.continuationVA, c.cfg.UARTPhysBase)
	return nil
}

// Continuation is the contract the continuation routine fulfills once
// control arrives with the MMU on: it probes the virtual UART alias by
// writing one character, then rebases the process-wide UART pointer from
// physical to virtual addressing and tags VIRT:V1. The probe's outcome is
// not checked: there is no failure branch, so nothing here reports through
// the physical UART or halts.
//
//go:nosplit
func Continuation(dev *uart.Device, cfg Config) {
	virt := cfg.UARTVirtBase
	probe := uart.New(virt)
	probe.Putc('V')

	dev.Rebase(virt)
	dev.Tag("VIRT:V1")
}
