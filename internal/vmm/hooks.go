package vmm

import "vmmcore/internal/asm"

// Every privileged instruction the Walker, Mapper, and Verifier need
// (barriers, cache maintenance, TLB invalidation) is routed through a
// package-level function variable instead of calling asm directly.
// Production code never reassigns these; tests override them so the
// bit-level hierarchy logic can be exercised against an in-memory fake
// table without executing EL1-only instructions on the host running
// `go test`.
var (
	dsbFn                            = asm.Dsb
	dsbSyFn                          = asm.DsbSy
	isbFn                            = asm.Isb
	cleanDcacheVaFn                  = asm.CleanDcacheVa
	invalidateTlbVaFn                = asm.InvalidateTlbVa
	invalidateTlbAllInnerShareableFn = asm.InvalidateTlbAllInnerShareable
)

// The linker-symbol and register readers the Section Installer and
// Verifier consume go through the same seam, so tests can pin the kernel
// layout to literal addresses instead of whatever the host linker decided.
var (
	textStartFn        = asm.GetTextStartAddr
	textEndFn          = asm.GetTextEndAddr
	rodataStartFn      = asm.GetRodataStartAddr
	rodataEndFn        = asm.GetRodataEndAddr
	dataStartFn        = asm.GetDataStartAddr
	dataEndFn          = asm.GetDataEndAddr
	bssStartFn         = asm.GetBssStartAddr
	bssEndFn           = asm.GetBssEndAddr
	mmuEnableAddrFn    = asm.GetMmuEnableAddr
	continuationAddrFn = asm.GetContinuationAddr
	linkRegisterFn     = asm.GetLinkRegister
	stackPointerFn     = asm.GetStackPointer
)
