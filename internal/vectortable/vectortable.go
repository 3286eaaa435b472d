// Package vectortable is the thin seam onto the exception vector table.
// The bring-up core only needs the table's address (to map its page) and a
// way to program VBAR_EL1 before the M bit is set; the vectors themselves
// and their handlers live outside this core.
package vectortable

import "vmmcore/internal/asm"

// Address returns the physical address of the installed vector table, as
// provided by the linker.
func Address() uintptr {
	return asm.GetExceptionVectorsAddr()
}

// SetBase programs VBAR_EL1. The core must call this, and InstallSections
// for the table's containing page, before Enable.
//
//go:nosplit
func SetBase(addr uintptr) {
	asm.SetVbarEl1(addr)
}
