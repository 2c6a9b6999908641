package composer

// DeviceRegistry resolves the post-capable display device. Implementations
// return an error when the backing module cannot be loaded or exposes no device.
type DeviceRegistry interface {
	ResolveDisplayDevice() (Device, error)
}

// Device accepts one batched post of hardware layers per cycle.
type Device interface {
	// Post submits the descriptors. A non-nil error means the display did not
	// update this cycle.
	Post(layers []HardwareLayer) error
}

// Buffer is a locked graphics buffer.
type Buffer interface {
	Format() PixelFormat
}

// BufferManager maps opaque buffer handles to locked buffers.
type BufferManager interface {
	// LockBuffer returns nil if the handle is unknown.
	LockBuffer(handle BufferHandle) Buffer
	UnlockBuffer(buf Buffer)
}

// FormatQuery classifies buffer formats.
type FormatQuery interface {
	IsVideoFormat(format PixelFormat) bool
}

// Plane is a hardware plane bound to a layer for this cycle.
type Plane interface {
	// Flip readies the plane for the next post. False means the plane could
	// not be readied this cycle.
	Flip() bool
	HardwareContext() uint64
}

// PlaneAssignment is the layer-index to plane mapping built for one display.
type PlaneAssignment interface {
	// Plane returns nil if no plane is assigned to the layer at index.
	Plane(index int) Plane
}

// ModeInfoProvider reports the native mode of a display.
type ModeInfoProvider interface {
	ModeInfo(display int) (ModeInfo, error)
}

// Coordinator is the display coordinator. Both methods may be called from
// any goroutine.
type Coordinator interface {
	ResetVsyncSource()
	// RequestRecomposition asks for a new composition cycle (invalidate).
	RequestRecomposition()
}

// PropertyStore reads runtime policy properties.
type PropertyStore interface {
	GetBool(key string, fallback bool) bool
}
