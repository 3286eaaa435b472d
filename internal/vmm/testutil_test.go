package vmm

import (
	"testing"
	"unsafe"

	"vmmcore/internal/allocator"
)

// stubAsm overrides every privileged-instruction seam (barriers, cache
// maintenance, TLB invalidation) with a no-op for the duration of t: the
// bit-level hierarchy logic is exercised without executing EL1-only
// instructions on the host running `go test`.
func stubAsm(t *testing.T) {
	t.Helper()
	origDsb, origDsbSy, origIsb := dsbFn, dsbSyFn, isbFn
	origClean, origTlbVa, origTlbAll := cleanDcacheVaFn, invalidateTlbVaFn, invalidateTlbAllInnerShareableFn

	dsbFn = func() {}
	dsbSyFn = func() {}
	isbFn = func() {}
	cleanDcacheVaFn = func(uintptr) {}
	invalidateTlbVaFn = func(uintptr) {}
	invalidateTlbAllInnerShareableFn = func() {}

	t.Cleanup(func() {
		dsbFn, dsbSyFn, isbFn = origDsb, origDsbSy, origIsb
		cleanDcacheVaFn, invalidateTlbVaFn, invalidateTlbAllInnerShareableFn = origClean, origTlbVa, origTlbAll
	})
}

const testPoolFrames = 64

// newTestPool returns a page-aligned frame pool backed by real Go memory.
// walkBuilder/mapRange mask every stored output address to a 4 KiB
// boundary, so the backing buffer is rounded up to alignment before it is
// handed to allocator.NewPool. t.Cleanup keeps the backing slice
// referenced until the test (and every sub-test using its addresses) has
// finished.
func newTestPool(t *testing.T) *allocator.Pool {
	t.Helper()
	buf := make([]byte, (testPoolFrames+1)*pageSize)
	base := uintptr(unsafe.Pointer(&buf[0]))
	aligned := (base + pageSize - 1) &^ (pageSize - 1)
	pool := allocator.NewPool(aligned, uintptr(testPoolFrames)*pageSize)
	t.Cleanup(func() { _ = buf })
	return pool
}

func testConfig() Config {
	return Config{
		VAWidth:           48,
		HighVirtualBase:   0xFFFF000000000000,
		UARTPhysBase:      0x09000000,
		UARTVirtBase:      0xFFFF000000000000 | 0x09000000,
		MaxMappings:       64,
		TransitionPadding: 64 * 1024,
		TransitionCap:     1024 * 1024,
	}
}

func newTestContext(t *testing.T) *Context {
	t.Helper()
	stubAsm(t)
	pool := newTestPool(t)
	ctx, kerr := NewContext(testConfig(), pool, nil)
	if kerr != nil {
		t.Fatalf("NewContext: %v", kerr)
	}
	return ctx
}
