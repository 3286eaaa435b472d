package vmm

import "testing"

func TestRegistryOverflowIsLoggedAndDropped(t *testing.T) {
	r := newRegistry(2, nil)

	r.register(0x1000, 0x2000, 0x1000, KernelText, "one")
	r.register(0x2000, 0x3000, 0x2000, KernelText, "two")
	r.register(0x3000, 0x4000, 0x3000, KernelText, "three")

	if len(r.entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 (bound)", len(r.entries))
	}
	if got := r.Overflowed(); got != 1 {
		t.Errorf("Overflowed() = %d, want 1", got)
	}
}

func TestRegistryAuditReportsLiveMapping(t *testing.T) {
	ctx := newTestContext(t)

	const va, pa = 0x4000000, 0x40300000
	if err := ctx.mapRange(va, va+pageSize, pa, KernelData); err != nil {
		t.Fatalf("mapRange: %v", err)
	}
	ctx.registry.register(va, va+pageSize, pa, KernelData, "test-region")

	results := ctx.registry.audit(ctx)
	if len(results) != 1 {
		t.Fatalf("audit() returned %d results, want 1", len(results))
	}
	res := results[0]
	if !res.Valid || !res.AttrsMatch || !res.PhysAddrMatch {
		t.Errorf("audit result = %+v, want all true", res)
	}
}

func TestRegistryAuditReportsUnmappedRegion(t *testing.T) {
	ctx := newTestContext(t)

	// Register a region that was never actually installed.
	ctx.registry.register(0x5000000, 0x5001000, 0x40400000, KernelData, "never-installed")

	results := ctx.registry.audit(ctx)
	if len(results) != 1 {
		t.Fatalf("audit() returned %d results, want 1", len(results))
	}
	if results[0].Valid {
		t.Error("audit should report a registered but never-installed region as invalid")
	}
}
