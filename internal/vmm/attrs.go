package vmm

// AttrSet names a compile-time-fixed bit pattern and MAIR slot, one per
// kind of region the installer maps: kernel text is RO+executable, rodata
// and data/bss are never executable, device MMIO is never executable and
// never cacheable, user pages are RW and accessible from EL0.
type AttrSet int

const (
	KernelText AttrSet = iota
	KernelRodata
	KernelData
	DeviceMmio
	UserText
)

func (s AttrSet) attrs() entryAttrs {
	switch s {
	case KernelText:
		return entryAttrs{attr: AttrNormalWB, ap: APROKernel, sh: SHInner, pxn: false, uxn: true}
	case KernelRodata:
		return entryAttrs{attr: AttrNormalWB, ap: APROKernel, sh: SHInner, pxn: true, uxn: true}
	case KernelData:
		return entryAttrs{attr: AttrNormalWB, ap: APRWKernel, sh: SHInner, pxn: true, uxn: true}
	case DeviceMmio:
		return entryAttrs{attr: AttrDeviceNGnRE, ap: APRWKernel, sh: SHOuter, pxn: true, uxn: true}
	case UserText:
		return entryAttrs{attr: AttrNormalWB, ap: APRWUser, sh: SHInner, pxn: false, uxn: false}
	default:
		return entryAttrs{attr: AttrNormalWB, ap: APROKernel, sh: SHInner, pxn: true, uxn: true}
	}
}

func (s AttrSet) String() string {
	switch s {
	case KernelText:
		return "kernel-text"
	case KernelRodata:
		return "kernel-rodata"
	case KernelData:
		return "kernel-data"
	case DeviceMmio:
		return "device-mmio"
	case UserText:
		return "user-text"
	default:
		return "unknown"
	}
}
