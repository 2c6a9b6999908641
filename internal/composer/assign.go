package composer

import (
	"log/slog"

	"hwc-composer/internal/platform/logger"
)

// AssignablePlane is a plane the assigner can place layers on.
type AssignablePlane interface {
	Plane
	Type() PlaneType
}

// LayerPlanes is a PlaneAssignment backed by a slice indexed by layer.
type LayerPlanes struct {
	planes []Plane
}

// NewLayerPlanes returns an empty assignment for n layers.
func NewLayerPlanes(n int) *LayerPlanes {
	return &LayerPlanes{planes: make([]Plane, n)}
}

// Set assigns p to the layer at index. Out of range indices are ignored.
func (l *LayerPlanes) Set(index int, p Plane) {
	if l == nil || index < 0 || index >= len(l.planes) {
		return
	}
	l.planes[index] = p
}

// Plane implements PlaneAssignment.
func (l *LayerPlanes) Plane(index int) Plane {
	if l == nil || index < 0 || index >= len(l.planes) {
		return nil
	}
	return l.planes[index]
}

// Assigned returns the number of layers with a plane.
func (l *LayerPlanes) Assigned() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, p := range l.planes {
		if p != nil {
			n++
		}
	}
	return n
}

// PlaneAssigner builds a LayerPlanes for one display from a pool of planes.
type PlaneAssigner struct {
	buffers BufferManager
	caps    PlaneCapabilities
	log     *slog.Logger
}

// NewPlaneAssigner returns an assigner that reads buffer properties from buffers.
func NewPlaneAssigner(buffers BufferManager, log *slog.Logger) *PlaneAssigner {
	return &PlaneAssigner{
		buffers: buffers,
		log:     logger.OrDiscard(log).With(slog.String("subsystem", "assign")),
	}
}

// Assign places the framebuffer target on the primary plane and every other
// eligible layer on the first free sprite or overlay plane that can present
// it, updating each layer's composition type. Overlay planes are only used
// when overlayAllowed. Skip and trick-mode layers stay on the GPU; layers
// blanked by the analyzer keep their type but get no plane.
//
// With hideVideo set, video layers are marked Overlay without a plane so
// neither the GPU nor a plane presents them. The compositor sets it on the
// primary display while video extended mode hands the video to a secondary.
func (pa *PlaneAssigner) Assign(display *DisplayContents, pool []AssignablePlane, overlayAllowed, hideVideo bool) *LayerPlanes {
	if display == nil {
		return NewLayerPlanes(0)
	}
	lp := NewLayerPlanes(len(display.Layers))
	used := make([]bool, len(pool))

	if n := len(display.Layers); n > 0 {
		for j, p := range pool {
			if p.Type() == PlanePrimary {
				lp.Set(n-1, p)
				used[j] = true
				break
			}
		}
	}

	for i, layer := range display.contentLayers() {
		if layer == nil || layer.Handle == 0 {
			continue
		}
		if layer.Hints&HintClearFB != 0 {
			continue
		}
		if layer.Flags&(FlagSkipLayer|FlagTrickMode) != 0 {
			layer.CompositionType = CompositionFramebuffer
			continue
		}

		candidate, ok := pa.candidate(layer)
		if !ok {
			layer.CompositionType = CompositionFramebuffer
			continue
		}
		if hideVideo && pa.caps.IsVideoFormat(candidate.Format) {
			layer.CompositionType = CompositionOverlay
			pa.log.Debug("video layer hidden", slog.Int("index", i), slog.Uint64("handle", uint64(layer.Handle)))
			continue
		}

		layer.CompositionType = CompositionFramebuffer
		for j, p := range pool {
			if used[j] {
				continue
			}
			t := p.Type()
			if t == PlanePrimary || (t == PlaneOverlay && !overlayAllowed) {
				continue
			}
			if !pa.caps.Supports(t, candidate) {
				continue
			}
			lp.Set(i, p)
			used[j] = true
			layer.CompositionType = CompositionOverlay
			pa.log.Debug("plane assigned",
				slog.Int("index", i),
				slog.String("plane_type", t.String()),
				slog.Uint64("handle", uint64(layer.Handle)))
			break
		}
	}
	return lp
}

func (pa *PlaneAssigner) candidate(layer *Layer) (PlaneCandidate, bool) {
	if pa.buffers == nil {
		return PlaneCandidate{}, false
	}
	buf := pa.buffers.LockBuffer(layer.Handle)
	if buf == nil {
		return PlaneCandidate{}, false
	}
	defer pa.buffers.UnlockBuffer(buf)

	c := PlaneCandidate{Layer: layer, Format: buf.Format()}
	if g, ok := buf.(BufferGeometry); ok {
		c.Stride = g.Stride()
		c.Protected = g.Protected()
	}
	return c, true
}
