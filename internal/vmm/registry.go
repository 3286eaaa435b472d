package vmm

import "vmmcore/internal/uart"

// region is the diagnostic tuple the data model calls a memory region
// record: {virt_start, virt_end, phys_start, attribute_flags, human_name}.
type region struct {
	virtStart uintptr
	virtEnd   uintptr
	physStart uintptr
	set       AttrSet
	name      string
}

// Registry is an append-only, bounded audit log of every region the
// Section Installer has mapped. It is a pure diagnostic: the MMU-enable
// path never consults it for correctness, only the operator-facing audit
// trail does.
type Registry struct {
	entries  []region
	max      int
	overflow int
	log      *uart.Device
}

func newRegistry(max int, log *uart.Device) *Registry {
	return &Registry{entries: make([]region, 0, max), max: max, log: log}
}

// register records a mapped region. Once the bound is reached, further
// calls are logged and dropped - registration failure never blocks
// mapping.
func (r *Registry) register(virtStart, virtEnd, physStart uintptr, set AttrSet, name string) {
	if len(r.entries) >= r.max {
		r.overflow++
		if r.log != nil {
			r.log.Tag("REG:OVERFLOW " + name)
		}
		return
	}
	r.entries = append(r.entries, region{
		virtStart: virtStart,
		virtEnd:   virtEnd,
		physStart: physStart,
		set:       set,
		name:      name,
	})
}

// logSkip records that a generic mapping call was rejected (e.g. the UART
// double-mapping guard, or a mismatched-attribute request). It never
// occupies a registry slot since no descriptor was written.
func (r *Registry) logSkip(va, pa uintptr, set AttrSet, reason string) {
	if r.log != nil {
		r.log.Tag("SKIP:" + reason)
	}
}

// AuditResult reports one region's verification outcome.
type AuditResult struct {
	Name          string
	Valid         bool
	AttrsMatch    bool
	PhysAddrMatch bool
}

// audit walks every recorded region and reports, for v_start of each,
// whether the live PTE is valid, whether its attributes match what was
// registered, and whether its physical base matches.
func (r *Registry) audit(c *Context) []AuditResult {
	results := make([]AuditResult, 0, len(r.entries))
	for _, reg := range r.entries {
		entry := c.lookup(reg.virtStart)

		res := AuditResult{Name: reg.name}
		if entry.valid() {
			res.Valid = true
			res.AttrsMatch = entry.attrs() == reg.set.attrs()
			res.PhysAddrMatch = entry.outputAddr() == reg.physStart
		}
		results = append(results, res)
	}
	return results
}

// Overflowed reports how many register() calls were dropped.
func (r *Registry) Overflowed() int {
	return r.overflow
}

// AuditMappings runs the registry audit against the live tables. Purely
// diagnostic: bring-up proceeds regardless of what it reports.
func (c *Context) AuditMappings() []AuditResult {
	return c.registry.audit(c)
}
