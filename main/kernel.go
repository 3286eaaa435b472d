// Package main is the kernel entry point: it sequences the VMM bring-up
// core in internal/vmm from cold EL1 reset through MMU enable. There is
// no runtime-stub bootstrap, no scheduler, no demand paging, no
// framebuffer here - everything beyond constructing the translation
// hierarchy and enabling the MMU is a different subsystem's concern.
package main

import (
	"vmmcore/internal/allocator"
	"vmmcore/internal/asm"
	"vmmcore/internal/uart"
	"vmmcore/internal/vectortable"
	"vmmcore/internal/vmm"
)

// framePoolSize is the span handed to the bring-up allocator: enough 4
// KiB frames for both L0 trees and every intermediate table the Walker
// lazily creates during section installation. A kernel that also ran
// demand-paged user tasks would need far more headroom; this core never
// runs past the continuation point, so a small pool suffices.
const framePoolSize = 2 * 1024 * 1024

// KernelMain is called from boot.s once EL1, SP, and AArch64 execution
// state are established. r0/r1/atags carry the firmware's raw register
// state; the DTB pointer is a later subsystem's concern and is accepted
// but unused here.
//
//go:noinline
func KernelMain(r0, r1, atags uint32) {
	_ = r0
	_ = r1
	_ = atags

	cfg := vmm.DefaultConfig()

	phys := uart.New(cfg.UARTPhysBase)
	phys.Init()
	phys.Tag("IMPL")
	phys.Tag("UART:OK")

	pool := allocator.NewPool(asm.GetFramePoolStartAddr(), framePoolSize)

	ctx, kerr := vmm.NewContext(cfg, pool, phys)
	if kerr != nil {
		phys.Tag("FATAL:ALLOC")
		halt()
	}
	phys.Tag("KERN:OK")

	vbar := vectortable.Address()
	if ierr := ctx.InstallSections(vbar); ierr != nil {
		phys.Tag("FATAL:MAP")
		halt()
	}
	if n := ctx.Registry().Overflowed(); n > 0 {
		phys.Tag("REG:OVERFLOW")
	}
	// Attribute mismatches are expected where the transition window
	// overlays a section with executable permission, so only a missing or
	// misdirected mapping is worth a tag.
	for _, res := range ctx.AuditMappings() {
		if !res.Valid || !res.PhysAddrMatch {
			phys.Tag("AUDIT:" + res.Name)
		}
	}

	vectortable.SetBase(vbar)
	vmm.SetActive(ctx, phys)

	phys.Tag("MMU:START")
	if eerr := ctx.Enable(vbar); eerr != nil {
		phys.Tag("FATAL:VERIFY")
		halt()
	}

	// Enable does not return to this call site on success: the assembly
	// region it invokes branches directly into the continuation routine
	// with the MMU already on. Reaching here means the branch itself
	// faulted before the continuation routine's first instruction ran.
	phys.Tag("FATAL:NORETURN")
	halt()
}

//go:nosplit
func halt() {
	for {
	}
}
