package composer

// Well-known display indices. The primary display is always index 0 in the
// slice handed to AnalyzeContents.
const (
	DisplayPrimary  = 0
	DisplayExternal = 1
	DisplayVirtual  = 2
)

// CompositionType says how a layer reaches the screen this cycle.
type CompositionType int

const (
	// CompositionFramebuffer layers are drawn by the GPU into the framebuffer target.
	CompositionFramebuffer CompositionType = iota
	// CompositionOverlay layers are scanned out directly by a hardware plane.
	CompositionOverlay
	// CompositionFramebufferTarget marks the layer holding the GPU composition result.
	CompositionFramebufferTarget
)

func (c CompositionType) String() string {
	switch c {
	case CompositionFramebuffer:
		return "framebuffer"
	case CompositionOverlay:
		return "overlay"
	case CompositionFramebufferTarget:
		return "framebuffer_target"
	default:
		return "unknown"
	}
}

// Layer flags set by the compositor core.
const (
	// FlagSkipLayer asks the HAL to leave the layer to GPU composition.
	FlagSkipLayer uint32 = 1 << 0
	// FlagTrickMode marks a video layer in fast-forward/rewind playback.
	FlagTrickMode uint32 = 1 << 1
)

// Layer hints set by the HAL for the compositor core.
const (
	// HintClearFB asks the compositor to clear the layer's framebuffer region.
	HintClearFB uint32 = 1 << 0
)

// Display content flags.
const (
	// FlagGeometryChanged is the per-display dirty bit for layer geometry.
	FlagGeometryChanged uint32 = 1 << 0
)

// BufferHandle is the opaque identity of a graphics buffer. Zero means no buffer.
type BufferHandle uint64

// PixelFormat is a buffer format tag.
type PixelFormat uint32

// Buffer formats understood by the plane policy.
const (
	FormatRGBA8888 PixelFormat = 1
	FormatRGBX8888 PixelFormat = 2
	FormatRGB565   PixelFormat = 4
	FormatBGRA8888 PixelFormat = 5
	FormatYV12     PixelFormat = 0x32315659
	FormatYUY2     PixelFormat = 0x14
	FormatNV12     PixelFormat = 0x3231564e
	FormatI420     PixelFormat = 0x102
	FormatUYVY     PixelFormat = 0x103
	FormatBGRX8888 PixelFormat = 0x1ff
	// FormatYUV420PackedSemiPlanar and its tiled variant are decoder output formats.
	FormatYUV420PackedSemiPlanar      PixelFormat = 0x7fa00e00
	FormatYUV420PackedSemiPlanarTiled PixelFormat = 0x7fa00f00
)

// Transform is a bit set of layer transforms.
type Transform uint32

const (
	TransformNone   Transform = 0
	TransformFlipH  Transform = 0x01
	TransformFlipV  Transform = 0x02
	TransformRot90  Transform = 0x04
	TransformRot180 Transform = TransformFlipH | TransformFlipV
	TransformRot270 Transform = TransformRot180 | TransformRot90
)

// Blending is a layer blend mode.
type Blending int32

const (
	BlendingNone     Blending = 0x0100
	BlendingPremult  Blending = 0x0105
	BlendingCoverage Blending = 0x0405
)

// Rect is an integer rectangle with exclusive right/bottom edges.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns Right-Left.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns Bottom-Top.
func (r Rect) Height() int { return r.Bottom - r.Top }

// Layer is one surface in a display's content list for one cycle.
type Layer struct {
	Handle          BufferHandle
	CompositionType CompositionType
	Flags           uint32
	Hints           uint32
	Transform       Transform
	Blending        Blending
	SourceCrop      Rect
	DisplayFrame    Rect
}

// DisplayContents is the per-display, per-cycle layer list. Layer order is
// z-order; by convention the final layer is the framebuffer target.
type DisplayContents struct {
	Layers []*Layer
	Flags  uint32
}

// GeometryChanged reports whether the dirty bit is set.
func (d *DisplayContents) GeometryChanged() bool {
	return d.Flags&FlagGeometryChanged != 0
}

// MarkGeometryChanged sets the dirty bit.
func (d *DisplayContents) MarkGeometryChanged() {
	d.Flags |= FlagGeometryChanged
}

// contentLayers returns every layer except the trailing framebuffer target.
func (d *DisplayContents) contentLayers() []*Layer {
	if len(d.Layers) == 0 {
		return nil
	}
	return d.Layers[:len(d.Layers)-1]
}

// HardwareLayer is the descriptor posted to the display device for one
// flipped layer.
type HardwareLayer struct {
	Layer   *Layer
	Context uint64
}

// ModeInfo is the native mode of a display.
type ModeInfo struct {
	HDisplay int
	VDisplay int
}

// Stride describes buffer row pitch. RGB buffers use RGB; YUV buffers use Y
// and UV.
type Stride struct {
	RGB int
	Y   int
	UV  int
}

// AnalyzerState is a point-in-time copy of the analyzer's policy flags.
type AnalyzerState struct {
	Initialized              bool `json:"initialized"`
	VideoExtendedModeEnabled bool `json:"video_extended_mode_enabled"`
	VideoExtendedMode        bool `json:"video_extended_mode"`
	ForceCloneMode           bool `json:"force_clone_mode"`
	BlankDevice              bool `json:"blank_device"`
	VideoPlaying             bool `json:"video_playing"`
	VideoPreparing           bool `json:"video_preparing"`
	OverlayAllowed           bool `json:"overlay_allowed"`
	PendingEvents            int  `json:"pending_events"`
}
