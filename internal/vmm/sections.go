package vmm

import (
	"vmmcore/internal/kernelerr"
)

func pageAlignDown(addr uintptr) uintptr { return addr &^ (pageSize - 1) }
func pageAlignUp(addr uintptr) uintptr   { return (addr + pageSize - 1) &^ (pageSize - 1) }

// InstallSections runs the Section Installer sequence described in the
// component design: UART, kernel .text/.rodata/.data/.bss, the vector
// table's page, the MMU-transition window, a stack window, and finally an
// identity mapping over the L0 table frames themselves. Invoking it twice
// on an already-mapped range is idempotent - mapOnePage always rewrites
// the same bits it would have written the first time.
func (c *Context) InstallSections(vectorTableAddr uintptr) *kernelerr.Error {
	if err := c.installUART(); err != nil {
		return err
	}
	if err := c.installKernelSections(); err != nil {
		return err
	}
	if err := c.installVectorTable(vectorTableAddr); err != nil {
		return err
	}
	if err := c.installTransitionRegion(); err != nil {
		return err
	}
	if err := c.installStackWindow(); err != nil {
		return err
	}
	return c.installPageTableIdentity()
}

// installUART maps the UART MMIO page exactly twice: an identity mapping
// at its physical base, and a high-virtual alias. Both carry identical
// attribute bits so no consumer observes a mismatched-attribute fault
// switching between them.
func (c *Context) installUART() *kernelerr.Error {
	c.installingUART = true
	defer func() { c.installingUART = false }()

	phys := pageAlignDown(c.cfg.UARTPhysBase)
	virt := pageAlignDown(c.cfg.UARTVirtBase)

	if err := c.mapRange(phys, phys+pageSize, phys, DeviceMmio); err != nil {
		return err
	}
	c.registry.register(phys, phys+pageSize, phys, DeviceMmio, "uart-identity")

	if err := c.mapRange(virt, virt+pageSize, phys, DeviceMmio); err != nil {
		return err
	}
	c.registry.register(virt, virt+pageSize, phys, DeviceMmio, "uart-virtual")
	return nil
}

// installKernelSections installs .text, .rodata, .data, and .bss using the
// linker-provided boundary symbols, identity mapped (pre-MMU, virtual
// equals physical for the kernel image).
func (c *Context) installKernelSections() *kernelerr.Error {
	sections := []struct {
		start, end uintptr
		set        AttrSet
		name       string
	}{
		{textStartFn(), textEndFn(), KernelText, "text"},
		{rodataStartFn(), rodataEndFn(), KernelRodata, "rodata"},
		{dataStartFn(), dataEndFn(), KernelData, "data"},
		{bssStartFn(), bssEndFn(), KernelData, "bss"},
	}

	for _, s := range sections {
		start := pageAlignDown(s.start)
		end := pageAlignUp(s.end)
		if start >= end {
			continue
		}
		if err := c.mapRange(start, end, start, s.set); err != nil {
			return err
		}
		c.registry.register(start, end, start, s.set, s.name)
	}
	return nil
}

// installVectorTable maps the vector table's containing page with
// kernel-text attributes (executable, RO) and remembers its virtual
// address for the Pre-Enable Verifier.
func (c *Context) installVectorTable(addr uintptr) *kernelerr.Error {
	page := pageAlignDown(addr)
	if err := c.mapRange(page, page+pageSize, page, KernelText); err != nil {
		return err
	}
	c.registry.register(page, page+pageSize, page, KernelText, "vector-table")
	c.vectorTableVirt = page
	return nil
}

// installTransitionRegion computes the minimum and maximum physical
// addresses across the MMU-enable routine, the continuation routine, and
// the current PC, expands to a page-aligned window padded on each side
// (capped at TransitionCap), and installs it both identity mapped and as
// a high-virtual alias with kernel-text attributes.
func (c *Context) installTransitionRegion() *kernelerr.Error {
	mmuEnable := mmuEnableAddrFn()
	continuation := continuationAddrFn()
	pc := linkRegisterFn()

	c.mmuEnableAddr = mmuEnable
	c.continuationVA = continuation

	lo, hi := mmuEnable, mmuEnable
	for _, a := range []uintptr{continuation, pc} {
		if a < lo {
			lo = a
		}
		if a > hi {
			hi = a
		}
	}

	// Cover each routine's containing page fully, then pad both sides.
	lo = pageAlignDown(lo - c.cfg.TransitionPadding)
	hi = pageAlignUp(pageAlignDown(hi) + pageSize + c.cfg.TransitionPadding)
	if hi-lo > c.cfg.TransitionCap {
		// The padded window is wider than the cap: shrink it to a
		// cap-sized window centered on its midpoint instead of truncating
		// one side. Locality is not asserted: an address farther than half
		// the cap from the midpoint falls outside the installed window.
		mid := lo + (hi-lo)/2
		lo = pageAlignDown(mid - c.cfg.TransitionCap/2)
		hi = pageAlignUp(mid + c.cfg.TransitionCap/2)
	}

	if err := c.mapRange(lo, hi, lo, KernelText); err != nil {
		return err
	}
	c.registry.register(lo, hi, lo, KernelText, "transition-identity")

	virtLo := lo | c.cfg.HighVirtualBase
	virtHi := hi | c.cfg.HighVirtualBase
	if err := c.mapRange(virtLo, virtHi, lo, KernelText); err != nil {
		return err
	}
	c.registry.register(virtLo, virtHi, lo, KernelText, "transition-virtual")
	return nil
}

// installStackWindow maps a window around the current stack pointer,
// identity and high-virtual, with kernel-data attributes.
func (c *Context) installStackWindow() *kernelerr.Error {
	sp := stackPointerFn()
	lo := pageAlignDown(sp - c.cfg.TransitionPadding)
	hi := pageAlignUp(sp + c.cfg.TransitionPadding)

	if err := c.mapRange(lo, hi, lo, KernelData); err != nil {
		return err
	}
	c.registry.register(lo, hi, lo, KernelData, "stack-identity")

	virtLo := lo | c.cfg.HighVirtualBase
	virtHi := hi | c.cfg.HighVirtualBase
	if err := c.mapRange(virtLo, virtHi, lo, KernelData); err != nil {
		return err
	}
	c.registry.register(virtLo, virtHi, lo, KernelData, "stack-virtual")
	return nil
}

// installPageTableIdentity maps the frames backing both L0 tables
// identity, so post-MMU page-table maintenance by later subsystems does
// not fault on its own bookkeeping structures.
func (c *Context) installPageTableIdentity() *kernelerr.Error {
	for _, base := range []uintptr{c.ttbr0, c.ttbr1} {
		if err := c.mapRange(base, base+pageSize, base, KernelData); err != nil {
			return err
		}
		c.registry.register(base, base+pageSize, base, KernelData, "l0-table")
	}
	return nil
}
