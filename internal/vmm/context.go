package vmm

import (
	"vmmcore/internal/allocator"
	"vmmcore/internal/kernelerr"
	"vmmcore/internal/uart"
)

// Context holds all bring-up state - both root tables, the frame pool, and
// the Mapping Registry - in a single value constructed during
// initialization and threaded explicitly into every operation. The only
// process-wide cells are the ones SetActive fills (the active Context and
// UART device): the continuation routine is entered from assembly with no
// arguments and must publish its UART rebase for every later consumer.
type Context struct {
	cfg Config

	ttbr0 uintptr // low-half root table (TTBR0_EL1)
	ttbr1 uintptr // high-half root table (TTBR1_EL1)

	// startShift is the index shift of the level the hardware starts its
	// table walk at for cfg.VAWidth: l0Shift for 48-bit, l1Shift for
	// 39-bit.
	startShift uint

	alloc    *allocator.Pool
	registry *Registry
	log      *uart.Device

	vectorTableVirt uintptr
	mmuEnableAddr   uintptr
	continuationVA  uintptr

	// installingUART is set for the duration of installUART so mapRange's
	// generic double-map guard does not reject its own writes.
	installingUART bool
}

var errBadVAWidth = &kernelerr.Error{Module: "config", Message: "virtual address width must be 48 or 39 bits"}

// NewContext allocates and zeroes both root trees from pool, constructs
// the Mapping Registry, and keeps the caller's UART handle (log, which may
// be nil) for diagnostics throughout bring-up.
func NewContext(cfg Config, pool *allocator.Pool, log *uart.Device) (*Context, *kernelerr.Error) {
	if cfg.VAWidth != 48 && cfg.VAWidth != 39 {
		return nil, errBadVAWidth
	}

	ttbr0 := pool.Alloc()
	if ttbr0 == 0 {
		return nil, errAllocExhausted
	}
	ttbr1 := pool.Alloc()
	if ttbr1 == 0 {
		return nil, errAllocExhausted
	}

	cleanDcacheVaFn(ttbr0)
	cleanDcacheVaFn(ttbr1)
	dsbFn()

	return &Context{
		cfg:        cfg,
		ttbr0:      ttbr0,
		ttbr1:      ttbr1,
		startShift: walkStartShift(cfg.VAWidth),
		alloc:      pool,
		registry:   newRegistry(cfg.MaxMappings, log),
		log:        log,
	}, nil
}

// TTBR0 and TTBR1 return the two root table physical bases, for the enabler.
func (c *Context) TTBR0() uintptr { return c.ttbr0 }
func (c *Context) TTBR1() uintptr { return c.ttbr1 }

// lookup reports the live leaf descriptor governing va, or an all-zero
// entry if va is unmapped in its half's tree.
func (c *Context) lookup(va uintptr) pte {
	return walkLookup(c.rootFor(va), va, c.startShift)
}

// Registry exposes the Mapping Registry for diagnostics.
func (c *Context) Registry() *Registry { return c.registry }
