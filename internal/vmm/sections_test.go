package vmm

import "testing"

// stubLayout pins the linker symbols and live registers to the literal
// kernel layout used by the end-to-end scenarios: .text at
// 0x40080000-0x40090000, the MMU-enable routine at 0x40085000, the
// continuation routine at 0x40086000, and the PC at 0x40085800.
func stubLayout(t *testing.T) {
	t.Helper()
	origTextStart, origTextEnd := textStartFn, textEndFn
	origRodataStart, origRodataEnd := rodataStartFn, rodataEndFn
	origDataStart, origDataEnd := dataStartFn, dataEndFn
	origBssStart, origBssEnd := bssStartFn, bssEndFn
	origMmuEnable, origContinuation := mmuEnableAddrFn, continuationAddrFn
	origLR, origSP := linkRegisterFn, stackPointerFn

	textStartFn = func() uintptr { return 0x40080000 }
	textEndFn = func() uintptr { return 0x40090000 }
	rodataStartFn = func() uintptr { return 0x40090000 }
	rodataEndFn = func() uintptr { return 0x40094000 }
	dataStartFn = func() uintptr { return 0x40094000 }
	dataEndFn = func() uintptr { return 0x40098000 }
	bssStartFn = func() uintptr { return 0x40098000 }
	bssEndFn = func() uintptr { return 0x4009C000 }
	mmuEnableAddrFn = func() uintptr { return 0x40085000 }
	continuationAddrFn = func() uintptr { return 0x40086000 }
	linkRegisterFn = func() uintptr { return 0x40085800 }
	stackPointerFn = func() uintptr { return 0x40200000 }

	t.Cleanup(func() {
		textStartFn, textEndFn = origTextStart, origTextEnd
		rodataStartFn, rodataEndFn = origRodataStart, origRodataEnd
		dataStartFn, dataEndFn = origDataStart, origDataEnd
		bssStartFn, bssEndFn = origBssStart, origBssEnd
		mmuEnableAddrFn, continuationAddrFn = origMmuEnable, origContinuation
		linkRegisterFn, stackPointerFn = origLR, origSP
	})
}

const testVectorTable = 0x4009C000

// TestTransitionRegionSizing: with the MMU-enable
// routine at 0x40085000, the continuation at 0x40086000, and the PC at
// 0x40085800, the installed identity window spans at least
// [0x40075000, 0x40097000) - 64 KiB of padding each side, page aligned.
func TestTransitionRegionSizing(t *testing.T) {
	ctx := newTestContext(t)
	stubLayout(t)

	if err := ctx.InstallSections(testVectorTable); err != nil {
		t.Fatalf("InstallSections: %v", err)
	}

	var transition *region
	for i := range ctx.registry.entries {
		if ctx.registry.entries[i].name == "transition-identity" {
			transition = &ctx.registry.entries[i]
		}
	}
	if transition == nil {
		t.Fatal("transition-identity region was not registered")
	}
	if transition.virtStart > 0x40075000 {
		t.Errorf("transition window starts at %#x, want <= 0x40075000", transition.virtStart)
	}
	if transition.virtEnd < 0x40097000 {
		t.Errorf("transition window ends at %#x, want >= 0x40097000", transition.virtEnd)
	}

	for _, va := range []uintptr{0x40075000, 0x40085000, 0x40086000, 0x40096000} {
		entry := ctx.lookup(va)
		if !entry.valid() {
			t.Errorf("transition page %#x is not mapped", va)
			continue
		}
		if !entry.executable() {
			t.Errorf("transition page %#x is not executable", va)
		}
		if entry.outputAddr() != va {
			t.Errorf("transition page %#x resolves to %#x, want identity", va, entry.outputAddr())
		}
	}
}

// TestInstallSectionsIdempotent matches the idempotence property: invoking
// the Section Installer a second time on an already-mapped layout must not
// change any descriptor bit.
func TestInstallSectionsIdempotent(t *testing.T) {
	ctx := newTestContext(t)
	stubLayout(t)

	if err := ctx.InstallSections(testVectorTable); err != nil {
		t.Fatalf("first InstallSections: %v", err)
	}

	regions := make([]region, len(ctx.registry.entries))
	copy(regions, ctx.registry.entries)

	type snap struct {
		va    uintptr
		entry pte
	}
	var before []snap
	for _, r := range regions {
		for va := r.virtStart; va < r.virtEnd; va += pageSize {
			before = append(before, snap{va, ctx.lookup(va)})
		}
	}

	if err := ctx.InstallSections(testVectorTable); err != nil {
		t.Fatalf("second InstallSections: %v", err)
	}

	for _, s := range before {
		if got := ctx.lookup(s.va); got != s.entry {
			t.Errorf("va %#x changed after reinstall: before=%#x after=%#x", s.va, uint64(s.entry), uint64(got))
		}
	}
}

// TestInstallSectionsThenVerify is the pre-flight half of the happy-path
// scenario: after a full section install, every critical address resolves
// to a valid leaf, fetch-critical ones executable, and the enable path's
// gate reports pass.
func TestInstallSectionsThenVerify(t *testing.T) {
	ctx := newTestContext(t)
	stubLayout(t)

	if err := ctx.InstallSections(testVectorTable); err != nil {
		t.Fatalf("InstallSections: %v", err)
	}

	results := ctx.Verify()
	for _, r := range results {
		if !r.Mapped {
			t.Errorf("%s: not mapped", r.Name)
		}
		if r.NeedExec && !r.Executable {
			t.Errorf("%s: not executable", r.Name)
		}
		if r.Repaired {
			t.Errorf("%s: unexpected repair on a clean install", r.Name)
		}
	}
	if !AllPassed(results) {
		t.Error("AllPassed = false after a full section install")
	}
}

// TestEnableRefusesWithoutVectorTableInstall matches the scenario where
// step 4 of the Section Installer is omitted: the Verifier reports the
// vector table unmapped and Enable never reaches the assembly region.
func TestEnableRefusesWithoutVectorTableInstall(t *testing.T) {
	ctx := newTestContext(t)
	stubLayout(t)

	if err := ctx.installUART(); err != nil {
		t.Fatalf("installUART: %v", err)
	}
	if err := ctx.installKernelSections(); err != nil {
		t.Fatalf("installKernelSections: %v", err)
	}
	if err := ctx.installTransitionRegion(); err != nil {
		t.Fatalf("installTransitionRegion: %v", err)
	}
	if err := ctx.installStackWindow(); err != nil {
		t.Fatalf("installStackWindow: %v", err)
	}

	if err := ctx.Enable(ctx.vectorTableVirt); err != errVerifyFailed {
		t.Errorf("Enable without the vector-table mapping = %v, want errVerifyFailed", err)
	}
}

// TestInstallSectionsRegistersUARTOnce confirms the dedicated UART path
// registered exactly the two aliases and that the generic section install
// did not add a third mapping of the same frame.
func TestInstallSectionsRegistersUARTOnce(t *testing.T) {
	ctx := newTestContext(t)
	stubLayout(t)

	if err := ctx.InstallSections(testVectorTable); err != nil {
		t.Fatalf("InstallSections: %v", err)
	}

	uartPage := ctx.cfg.UARTPhysBase &^ (pageSize - 1)
	count := 0
	for _, r := range ctx.registry.entries {
		if r.physStart == uartPage {
			count++
		}
	}
	if count != 2 {
		t.Errorf("UART frame registered %d times, want exactly 2 (identity + virtual alias)", count)
	}
}
