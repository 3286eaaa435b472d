//go:build !arm64

package asm

// This stub exists to keep tooling that doesn't target arm64 happy: the
// real implementations live in asm_arm64.s and are meaningless on a hosted
// runner. Barriers and cache/TLB maintenance are no-ops, system-register
// and linker-symbol reads return zero, and the MMIO/UART routines touch
// nothing. Bzero and Memcopy do real work so allocator tests see zeroed
// frames.

import "unsafe"

func Dsb()   {}
func DsbSy() {}
func Dmb()   {}
func Isb()   {}

func CleanDcacheVa(addr uintptr)      {}
func InvalidateInstructionCacheAll()  {}
func InvalidateTlbVa(addr uintptr)    {}
func InvalidateTlbAllLocal()          {}
func InvalidateTlbAllInnerShareable() {}

func ReadMairEl1() uint64     { return 0 }
func WriteMairEl1(v uint64)   {}
func ReadTcrEl1() uint64      { return 0 }
func WriteTcrEl1(v uint64)    {}
func ReadTtbr0El1() uint64    { return 0 }
func WriteTtbr0El1(v uint64)  {}
func ReadTtbr1El1() uint64    { return 0 }
func WriteTtbr1El1(v uint64)  {}
func ReadSctlrEl1() uint64    { return 0 }
func WriteSctlrEl1(v uint64)  {}
func SetVbarEl1(addr uintptr) {}

func MmioRead32(addr uintptr) uint32     { return 0 }
func MmioWrite32(addr uintptr, v uint32) {}

func Bzero(ptr unsafe.Pointer, size uint32) {
	b := unsafe.Slice((*byte)(ptr), size)
	for i := range b {
		b[i] = 0
	}
}

func Memcopy(dst, src unsafe.Pointer, size uint32) {
	d := unsafe.Slice((*byte)(dst), size)
	s := unsafe.Slice((*byte)(src), size)
	copy(d, s)
}

func UartInitPl011(base uintptr)         {}
func UartPutcPl011(base uintptr, c byte) {}
func UartGetcPl011(base uintptr) byte    { return 0 }

func GetStackPointer() uintptr { return 0 }
func GetLinkRegister() uintptr { return 0 }

func GetTextStartAddr() uintptr        { return 0 }
func GetTextEndAddr() uintptr          { return 0 }
func GetRodataStartAddr() uintptr      { return 0 }
func GetRodataEndAddr() uintptr        { return 0 }
func GetDataStartAddr() uintptr        { return 0 }
func GetDataEndAddr() uintptr          { return 0 }
func GetBssStartAddr() uintptr         { return 0 }
func GetBssEndAddr() uintptr           { return 0 }
func GetUartBase() uintptr             { return 0 }
func GetFramePoolStartAddr() uintptr   { return 0 }
func GetExceptionVectorsAddr() uintptr { return 0 }
func GetMmuEnableAddr() uintptr        { return 0 }
func GetContinuationAddr() uintptr     { return 0 }

func EnableMMUTransition(ttbr0, ttbr1, mair, tcr uint64, continuation, uartBase uintptr) {}
