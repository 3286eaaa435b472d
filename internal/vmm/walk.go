package vmm

import (
	"unsafe"

	"vmmcore/internal/allocator"
	"vmmcore/internal/kernelerr"
)

// Level shifts and index width: each of the four levels indexes 9 bits of
// the virtual address; the low 12 bits are the page offset.
const (
	l0Shift = 39
	l1Shift = 30
	l2Shift = 21
	l3Shift = 12

	levelIndexBits = 9
	levelIndexMask = (1 << levelIndexBits) - 1

	pteSize   = 8
	tableSize = 512 * pteSize
)

var errAllocExhausted = &kernelerr.Error{Module: "walk", Message: "frame allocator returned null"}

// ptrAtFn returns a pointer to the descriptor at a physical address. Before
// MMU enable, physical and "virtual" addressing coincide, so this is a
// direct cast. Tests keep it as is: their tables live in ordinary Go
// memory handed to the frame pool, which the direct cast reaches.
var ptrAtFn = func(addr uintptr) *uint64 {
	return (*uint64)(unsafe.Pointer(addr))
}

func levelIndex(va uintptr, shift uint) uintptr {
	return (va >> shift) & levelIndexMask
}

// walkStartShift returns the shift of the level the hardware starts its
// walk at for a given VA width with a 4 KiB granule: level 0 for 48-bit
// (T0SZ=16), level 1 for 39-bit (T0SZ=25). The TTBR frame is an L1 table
// in the 39-bit regime, and the software walk has to agree with that or
// the built tree is unwalkable.
func walkStartShift(vaWidth uint8) uint {
	if vaWidth == 39 {
		return l1Shift
	}
	return l0Shift
}

// walkBuilder descends (or lazily allocates) from the root table down to
// the L3 table governing va, using alloc to materialize any missing
// intermediate table. startShift selects the level the walk begins at;
// it must match what TCR's T0SZ/T1SZ make the hardware do. It returns the
// L3 table's physical address, or a failure indication if allocation is
// exhausted.
//
// Each newly allocated table descriptor is cleaned to the point of cache
// coherence and followed by a DSB before the walk continues, per the
// Walker's contract.
func walkBuilder(root uintptr, va uintptr, alloc *allocator.Pool, startShift uint) (uintptr, *kernelerr.Error) {
	table := root
	for shift := startShift; shift >= l2Shift; shift -= 9 {
		idx := levelIndex(va, shift)
		entryAddr := table + idx*pteSize
		entry := pte(*ptrAtFn(entryAddr))

		if !entry.isTable() {
			frame := alloc.Alloc()
			if frame == 0 {
				return 0, errAllocExhausted
			}
			next := newTableDescriptor(frame)
			*ptrAtFn(entryAddr) = uint64(next)
			cleanDcacheVaFn(entryAddr)
			dsbFn()
			table = frame
			continue
		}
		table = entry.outputAddr()
	}
	return table, nil
}

// walkLookup performs a read-only descent from root to the L3 entry
// governing va, allocating nothing. It reports the live leaf descriptor, or
// an all-zero entry if any ancestor along the path is invalid - matching
// the "unmapped" contract used by the Verifier and Registry audit.
func walkLookup(root uintptr, va uintptr, startShift uint) pte {
	table := root
	for shift := startShift; shift >= l2Shift; shift -= 9 {
		idx := levelIndex(va, shift)
		entry := pte(*ptrAtFn(table + idx*pteSize))
		if !entry.isTable() {
			return 0
		}
		table = entry.outputAddr()
	}
	idx := levelIndex(va, l3Shift)
	return pte(*ptrAtFn(table + idx*pteSize))
}
