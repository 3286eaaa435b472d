//go:build arm64

// Package asm declares the small set of AArch64 primitives the VMM core
// cannot express in Go: system-register access, barriers, cache and TLB
// maintenance, raw MMIO, and the linker-provided section symbols. Every
// function here is a thin wrapper over one or two instructions; bodies live
// in asm_arm64.s.
package asm

import "unsafe"

// --- Barriers ---

//go:noescape
func Dsb()

//go:noescape
func DsbSy()

//go:noescape
func Dmb()

//go:noescape
func Isb()

// --- Cache maintenance ---

//go:noescape
func CleanDcacheVa(addr uintptr)

//go:noescape
func InvalidateInstructionCacheAll()

// --- TLB maintenance ---

//go:noescape
func InvalidateTlbVa(addr uintptr)

//go:noescape
func InvalidateTlbAllLocal()

//go:noescape
func InvalidateTlbAllInnerShareable()

// --- System registers ---

//go:noescape
func ReadMairEl1() uint64

//go:noescape
func WriteMairEl1(v uint64)

//go:noescape
func ReadTcrEl1() uint64

//go:noescape
func WriteTcrEl1(v uint64)

//go:noescape
func ReadTtbr0El1() uint64

//go:noescape
func WriteTtbr0El1(v uint64)

//go:noescape
func ReadTtbr1El1() uint64

//go:noescape
func WriteTtbr1El1(v uint64)

//go:noescape
func ReadSctlrEl1() uint64

//go:noescape
func WriteSctlrEl1(v uint64)

//go:noescape
func SetVbarEl1(addr uintptr)

// --- Raw MMIO ---

//go:noescape
func MmioRead32(addr uintptr) uint32

//go:noescape
func MmioWrite32(addr uintptr, v uint32)

// --- Bulk memory ---

//go:noescape
func Bzero(ptr unsafe.Pointer, size uint32)

//go:noescape
func Memcopy(dst, src unsafe.Pointer, size uint32)

// --- Early PL011 UART ---

//go:noescape
func UartInitPl011(base uintptr)

//go:noescape
func UartPutcPl011(base uintptr, c byte)

//go:noescape
func UartGetcPl011(base uintptr) byte

// --- Stack introspection ---

//go:noescape
func GetStackPointer() uintptr

// GetLinkRegister returns the caller's return address, used as a stand-in
// for "the current PC" when sizing the transition-code window.
//
//go:noescape
func GetLinkRegister() uintptr

// --- Linker-provided section/symbol addresses ---
// All values returned here are absolute physical addresses, valid only
// before the MMU is enabled.

//go:noescape
func GetTextStartAddr() uintptr

//go:noescape
func GetTextEndAddr() uintptr

//go:noescape
func GetRodataStartAddr() uintptr

//go:noescape
func GetRodataEndAddr() uintptr

//go:noescape
func GetDataStartAddr() uintptr

//go:noescape
func GetDataEndAddr() uintptr

//go:noescape
func GetBssStartAddr() uintptr

//go:noescape
func GetBssEndAddr() uintptr

//go:noescape
func GetUartBase() uintptr

// GetFramePoolStartAddr returns the physical base of the region the
// kernel entry point hands to allocator.NewPool: the frame pool backing
// every frame the Walker and Section Installer allocate during bring-up.
//
//go:noescape
func GetFramePoolStartAddr() uintptr

//go:noescape
func GetExceptionVectorsAddr() uintptr

//go:noescape
func GetMmuEnableAddr() uintptr

//go:noescape
func GetContinuationAddr() uintptr

// EnableMMUTransition is the single audited assembly region described by
// the bring-up design: it writes MAIR_EL1, TCR_EL1, both TTBRs, performs
// the cache/TLB/barrier dance, sets SCTLR_EL1.{M,C,I}, and branches to the
// physical continuation address. It never returns to its caller. uartBase
// is the physical UART MMIO base used for the in-line single-character
// progress markers ('1'..'7') that are part of the contract and must not
// be removed.
//
//go:noescape
func EnableMMUTransition(ttbr0, ttbr1, mair, tcr uint64, continuation, uartBase uintptr)
