package vmm

// CriticalAddress names one of the addresses the Pre-Enable Verifier
// checks before MMU enable is permitted to proceed. Exec marks addresses
// the CPU will fetch instructions from across the enable instant; their
// leaf descriptor must have PXN clear.
type CriticalAddress struct {
	Name string
	VA   uintptr
	Exec bool
}

// CriticalAddresses returns the curated list the component design names:
// vector table, UART virtual, UART physical, current PC window, current SP
// window, MMU-enable entry, continuation entry.
func (c *Context) CriticalAddresses() []CriticalAddress {
	return []CriticalAddress{
		{"vector-table", c.vectorTableVirt, true},
		{"uart-virtual", pageAlignDown(c.cfg.UARTVirtBase), false},
		{"uart-physical", pageAlignDown(c.cfg.UARTPhysBase), false},
		{"pc-window", pageAlignDown(linkRegisterFn()), true},
		{"sp-window", pageAlignDown(stackPointerFn()), false},
		{"mmu-enable", pageAlignDown(c.mmuEnableAddr), true},
		{"continuation", pageAlignDown(c.continuationVA), true},
	}
}

// VerifyResult reports one critical address's verification outcome.
type VerifyResult struct {
	Name       string
	Mapped     bool
	NeedExec   bool
	Executable bool
	Repaired   bool
}

// Verify walks every critical address and confirms it resolves to a valid
// leaf with the access flag set, and that addresses expected to be
// executable have PXN clear. The vector table is the sole address that is
// auto-repaired in place: if its PXN bit is set, Verify clears it using
// the same write -> clean -> invalidate discipline the Mapper uses, and
// reports Repaired. Every other failure is reported but left untouched -
// the caller decides whether to proceed.
func (c *Context) Verify() []VerifyResult {
	addrs := c.CriticalAddresses()
	results := make([]VerifyResult, 0, len(addrs))

	for _, ca := range addrs {
		root := c.rootFor(ca.VA)
		entry := c.lookup(ca.VA)

		res := VerifyResult{Name: ca.Name, NeedExec: ca.Exec}
		if !entry.valid() || entry&pteAF == 0 {
			results = append(results, res)
			continue
		}
		res.Mapped = true
		res.Executable = entry.executable()

		if ca.Name == "vector-table" && !res.Executable {
			idx := levelIndex(ca.VA, l3Shift)
			table := entryTableFor(root, ca.VA, c.startShift)
			entryAddr := table + idx*pteSize
			live := pte(*ptrAtFn(entryAddr))
			live.clearPXN()
			cleanDcacheVaFn(entryAddr)
			*ptrAtFn(entryAddr) = uint64(live)
			cleanDcacheVaFn(entryAddr)
			invalidateTlbVaFn(ca.VA)
			dsbSyFn()
			res.Executable = true
			res.Repaired = true
		}

		results = append(results, res)
	}
	return results
}

// AllPassed reports whether every critical address mapped and, where
// required, is executable. The MMU-enable path refuses to write SCTLR.M
// unless this holds.
func AllPassed(results []VerifyResult) bool {
	for _, r := range results {
		if !r.Mapped {
			return false
		}
		if r.NeedExec && !r.Executable {
			return false
		}
	}
	return true
}

// entryTableFor returns the L3 table address governing va, re-walking
// from root. Used only by the vector-table auto-repair path, which needs
// the entry's address (not just its value) to rewrite it in place.
func entryTableFor(root, va uintptr, startShift uint) uintptr {
	table := root
	for shift := startShift; shift >= l2Shift; shift -= 9 {
		idx := levelIndex(va, shift)
		entry := pte(*ptrAtFn(table + idx*pteSize))
		table = entry.outputAddr()
	}
	return table
}
