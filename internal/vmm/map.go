package vmm

import (
	"vmmcore/internal/kernelerr"
)

const pageSize = 4096

var (
	errStraddlesBoundary = &kernelerr.Error{Module: "map", Message: "virtual range straddles the high-virtual boundary"}
	errMisaligned        = &kernelerr.Error{Module: "map", Message: "virtual or physical address not page aligned"}
)

// rootFor selects TTBR0 or TTBR1 for a virtual address, per the data
// model's two-tree address space: addresses at or above HighVirtualBase
// use the TTBR1 (high) tree, everything below uses TTBR0 (low).
func (c *Context) rootFor(va uintptr) uintptr {
	if va >= c.cfg.HighVirtualBase {
		return c.ttbr1
	}
	return c.ttbr0
}

// mapRange encodes [vaStart, vaEnd) -> paStart.. into leaf entries with the
// given attribute set, one page at a time. It is the Mapper described in
// the component design: per-page ordering is clean -> write -> clean ->
// TLB-invalidate-by-VA(inner-shareable) -> DSB, so a concurrent walk never
// observes a torn value. A final broadcast TLB invalidation and ISB follow
// the whole range.
func (c *Context) mapRange(vaStart, vaEnd, paStart uintptr, set AttrSet) *kernelerr.Error {
	if vaStart%pageSize != 0 || vaEnd%pageSize != 0 || paStart%pageSize != 0 {
		return errMisaligned
	}
	if vaStart >= vaEnd {
		return nil
	}

	lowHalf := vaStart < c.cfg.HighVirtualBase
	highHalf := (vaEnd - 1) >= c.cfg.HighVirtualBase
	if lowHalf && highHalf {
		return errStraddlesBoundary
	}

	root := c.rootFor(vaStart)
	attrs := set.attrs()

	va := vaStart
	pa := paStart
	for va < vaEnd {
		if c.isUARTFrame(pa) && !c.installingUART {
			// The UART frame is installed exactly twice, via installUART.
			// Generic mapping calls that touch it are no-ops to avoid a
			// double mapping with mismatched attributes.
			c.registry.logSkip(va, pa, set, "uart frame reserved for dedicated path")
			va += pageSize
			pa += pageSize
			continue
		}

		if err := c.mapOnePage(root, va, pa, attrs); err != nil {
			return err
		}
		va += pageSize
		pa += pageSize
	}

	invalidateTlbAllInnerShareableFn()
	isbFn()
	return nil
}

// mapOnePage writes (or overwrites) the single L3 entry governing va.
func (c *Context) mapOnePage(root, va, pa uintptr, attrs entryAttrs) *kernelerr.Error {
	l3, err := walkBuilder(root, va, c.alloc, c.startShift)
	if err != nil {
		return err
	}

	idx := levelIndex(va, l3Shift)
	entryAddr := l3 + idx*pteSize

	entry := newPageDescriptor(pa, attrs)
	cleanDcacheVaFn(entryAddr)
	*ptrAtFn(entryAddr) = uint64(entry)
	cleanDcacheVaFn(entryAddr)
	invalidateTlbVaFn(va)
	dsbSyFn()
	return nil
}

// isUARTFrame reports whether pa falls within the UART's MMIO page.
func (c *Context) isUARTFrame(pa uintptr) bool {
	uartPage := c.cfg.UARTPhysBase &^ (pageSize - 1)
	return pa == uartPage
}

