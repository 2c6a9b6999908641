package composer

// PlaneType identifies the kind of hardware plane.
type PlaneType int

const (
	PlanePrimary PlaneType = iota
	PlaneSprite
	PlaneOverlay
)

func (t PlaneType) String() string {
	switch t {
	case PlanePrimary:
		return "primary"
	case PlaneSprite:
		return "sprite"
	case PlaneOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// Plane limits.
const (
	spritePlaneMaxWidth         = 4096
	spritePlaneMaxHeight        = 4096
	spritePlaneMaxStrideLinear  = 8192
	overlayPlaneMaxStridePacked = 4096
	overlayPlaneMaxStrideLinear = 8192
	overlayMaxWidth             = 2048
	overlayMaxHeight            = 2048
)

// BufferGeometry is implemented by buffers that can report their stride and
// protection state. Buffers that don't are treated as zero stride and
// unprotected.
type BufferGeometry interface {
	Stride() Stride
	Protected() bool
}

// PlaneCandidate is a layer together with the buffer properties the plane
// checks need.
type PlaneCandidate struct {
	Layer     *Layer
	Format    PixelFormat
	Stride    Stride
	Protected bool
}

// PlaneCapabilities answers whether a plane type can present a layer.
type PlaneCapabilities struct{}

// IsVideoFormat implements FormatQuery: YUV formats are video formats.
func (PlaneCapabilities) IsVideoFormat(format PixelFormat) bool {
	switch format {
	case FormatYV12, FormatI420, FormatNV12, FormatYUY2, FormatUYVY,
		FormatYUV420PackedSemiPlanar, FormatYUV420PackedSemiPlanarTiled:
		return true
	default:
		return false
	}
}

// Supports reports whether every capability check passes.
func (p PlaneCapabilities) Supports(planeType PlaneType, c PlaneCandidate) bool {
	return p.IsFormatSupported(planeType, c) &&
		p.IsSizeSupported(planeType, c) &&
		p.IsBlendingSupported(planeType, c) &&
		p.IsScalingSupported(planeType, c) &&
		p.IsTransformSupported(planeType, c)
}

func isRGBFormat(format PixelFormat) bool {
	switch format {
	case FormatBGRA8888, FormatBGRX8888, FormatRGBA8888, FormatRGBX8888, FormatRGB565:
		return true
	default:
		return false
	}
}

// IsFormatSupported checks the buffer format against the plane type.
func (PlaneCapabilities) IsFormatSupported(planeType PlaneType, c PlaneCandidate) bool {
	trans := c.Layer.Transform

	switch planeType {
	case PlaneSprite, PlanePrimary:
		return isRGBFormat(c.Format) && trans == TransformNone
	case PlaneOverlay:
		switch c.Format {
		case FormatI420, FormatYUY2, FormatUYVY, FormatYV12:
			return trans == TransformNone
		case FormatNV12, FormatYUV420PackedSemiPlanar, FormatYUV420PackedSemiPlanarTiled:
			return true
		}
	}
	return false
}

// IsSizeSupported checks buffer stride limits.
func (PlaneCapabilities) IsSizeSupported(planeType PlaneType, c PlaneCandidate) bool {
	switch planeType {
	case PlaneSprite, PlanePrimary:
		return isRGBFormat(c.Format) && c.Stride.RGB <= spritePlaneMaxStrideLinear
	case PlaneOverlay:
		maxStride := overlayPlaneMaxStrideLinear
		switch c.Format {
		case FormatYV12, FormatI420, FormatNV12, FormatYUV420PackedSemiPlanar, FormatYUV420PackedSemiPlanarTiled:
		case FormatYUY2, FormatUYVY:
			maxStride = overlayPlaneMaxStridePacked
		default:
			return false
		}
		return c.Stride.Y <= maxStride
	}
	return false
}

// IsBlendingSupported checks the blend mode. Overlays cannot blend.
func (PlaneCapabilities) IsBlendingSupported(planeType PlaneType, c PlaneCandidate) bool {
	switch planeType {
	case PlaneSprite, PlanePrimary:
		switch c.Layer.Blending {
		case BlendingNone, BlendingPremult, BlendingCoverage:
			return true
		}
		return false
	case PlaneOverlay:
		return c.Layer.Blending == BlendingNone
	}
	return false
}

// IsScalingSupported checks source and destination sizes. Sprites cannot
// scale; overlays scale within [0.25, 4] for unprotected buffers.
func (PlaneCapabilities) IsScalingSupported(planeType PlaneType, c PlaneCandidate) bool {
	src := c.Layer.SourceCrop
	dst := c.Layer.DisplayFrame
	srcW, srcH := src.Width(), src.Height()
	dstW, dstH := dst.Width(), dst.Height()

	switch planeType {
	case PlaneSprite, PlanePrimary:
		if dstW-1 <= 0 || dstH-1 <= 0 || dstW-1 >= spritePlaneMaxWidth || dstH-1 >= spritePlaneMaxHeight {
			return false
		}
		return srcW == dstW && srcH == dstH

	case PlaneOverlay:
		if srcW > overlayMaxWidth-1 || srcH > overlayMaxHeight-1 {
			return false
		}
		// a one pixel high flip stalls the display pipe
		if dstW <= 1 || dstH <= 1 || srcW <= 1 || srcH <= 1 {
			return false
		}

		trans := c.Layer.Transform
		if trans == TransformRot90 || trans == TransformRot270 {
			srcW, srcH = srcH, srcW
		}

		if !c.Protected {
			if src.Left&63 != 0 {
				return false
			}
			scaleX := float64(srcW) / float64(dstW)
			scaleY := float64(srcH) / float64(dstH)
			if scaleX > 4.0 || scaleY > 4.0 || scaleX < 0.25 || scaleY < 0.25 {
				return false
			}
		}
		return true
	}
	return false
}

// IsTransformSupported checks the layer transform. Overlays rotate by 90 and
// 270 but cannot flip; other planes take no transform at all.
func (PlaneCapabilities) IsTransformSupported(planeType PlaneType, c PlaneCandidate) bool {
	trans := c.Layer.Transform
	if planeType == PlaneOverlay {
		switch trans {
		case TransformNone, TransformRot90, TransformRot270:
			return true
		}
		return false
	}
	return trans == TransformNone
}
