package hal

import (
	"sync"

	"hwc-composer/internal/composer"
)

const (
	videoHandle        composer.BufferHandle = 0x1000
	uiHandleBase       composer.BufferHandle = 0x2000
	fbTargetHandleBase composer.BufferHandle = 0x3000
)

// Scene fabricates per-cycle display contents for the simulated displays:
// a UI layer and a framebuffer target on each, plus a full screen video
// layer mirrored on every display while video is playing.
type Scene struct {
	mu          sync.Mutex
	buffers     *BufferStore
	modes       *ModeTable
	displays    int
	lastVideo   bool
	initialized bool
}

// NewScene registers the scene's buffers in buffers and returns a scene for
// the given number of displays, sized by modes.
func NewScene(buffers *BufferStore, modes *ModeTable, displays int) *Scene {
	s := &Scene{buffers: buffers, modes: modes, displays: displays}

	buffers.Put(&Buffer{
		Handle:      videoHandle,
		PixelFormat: composer.FormatNV12,
		Width:       1920,
		Height:      1080,
		Pitch:       composer.Stride{Y: 2048, UV: 2048},
	})
	for d := 0; d < displays; d++ {
		m := s.mode(d)
		for _, h := range []composer.BufferHandle{uiHandleBase + composer.BufferHandle(d), fbTargetHandleBase + composer.BufferHandle(d)} {
			buffers.Put(&Buffer{
				Handle:      h,
				PixelFormat: composer.FormatRGBA8888,
				Width:       m.HDisplay,
				Height:      m.VDisplay,
				Pitch:       composer.Stride{RGB: m.HDisplay * 4},
			})
		}
	}
	return s
}

// VideoHandle is the buffer identity of the scene's video layer.
func (s *Scene) VideoHandle() composer.BufferHandle { return videoHandle }

// Build returns fresh contents for every display. Geometry is marked changed
// on the first build and whenever video presence toggles.
func (s *Scene) Build(videoPlaying bool) []*composer.DisplayContents {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := !s.initialized || videoPlaying != s.lastVideo
	s.initialized = true
	s.lastVideo = videoPlaying

	out := make([]*composer.DisplayContents, s.displays)
	for d := range out {
		m := s.mode(d)
		screen := composer.Rect{Right: m.HDisplay, Bottom: m.VDisplay}

		content := &composer.DisplayContents{}
		if videoPlaying {
			content.Layers = append(content.Layers, &composer.Layer{
				Handle:       videoHandle,
				Blending:     composer.BlendingNone,
				SourceCrop:   composer.Rect{Right: 1920, Bottom: 1080},
				DisplayFrame: screen,
			})
		}
		content.Layers = append(content.Layers,
			&composer.Layer{
				Handle:       uiHandleBase + composer.BufferHandle(d),
				Blending:     composer.BlendingPremult,
				SourceCrop:   screen,
				DisplayFrame: screen,
			},
			&composer.Layer{
				Handle:          fbTargetHandleBase + composer.BufferHandle(d),
				CompositionType: composer.CompositionFramebufferTarget,
				Blending:        composer.BlendingPremult,
				SourceCrop:      screen,
				DisplayFrame:    screen,
			},
		)
		if changed {
			content.MarkGeometryChanged()
		}
		out[d] = content
	}
	return out
}

func (s *Scene) mode(display int) composer.ModeInfo {
	if s.modes != nil {
		if m, err := s.modes.ModeInfo(display); err == nil {
			return m
		}
	}
	return composer.ModeInfo{HDisplay: 1920, VDisplay: 1080}
}
