package composer

import (
	"sync"
	"sync/atomic"
)

type fakeBuffer struct {
	format    PixelFormat
	stride    Stride
	protected bool
}

func (b *fakeBuffer) Format() PixelFormat { return b.format }
func (b *fakeBuffer) Stride() Stride      { return b.stride }
func (b *fakeBuffer) Protected() bool     { return b.protected }

type fakeBuffers struct {
	mu      sync.Mutex
	bufs    map[BufferHandle]*fakeBuffer
	locks   int
	unlocks int
}

func newFakeBuffers() *fakeBuffers {
	return &fakeBuffers{bufs: make(map[BufferHandle]*fakeBuffer)}
}

func (f *fakeBuffers) put(h BufferHandle, format PixelFormat, stride Stride) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bufs[h] = &fakeBuffer{format: format, stride: stride}
}

func (f *fakeBuffers) LockBuffer(h BufferHandle) Buffer {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bufs[h]
	if !ok {
		return nil
	}
	f.locks++
	return b
}

func (f *fakeBuffers) UnlockBuffer(Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlocks++
}

type fakeModes map[int]ModeInfo

func (m fakeModes) ModeInfo(display int) (ModeInfo, error) {
	mode, ok := m[display]
	if !ok {
		return ModeInfo{}, errNoMode
	}
	return mode, nil
}

type testError string

func (e testError) Error() string { return string(e) }

const errNoMode = testError("no mode")

type fakeCoordinator struct {
	resets     atomic.Int32
	recomposes atomic.Int32
}

func (c *fakeCoordinator) ResetVsyncSource()     { c.resets.Add(1) }
func (c *fakeCoordinator) RequestRecomposition() { c.recomposes.Add(1) }

type fakeProps struct {
	mu     sync.Mutex
	values map[string]bool
}

func (p *fakeProps) set(key string, v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = make(map[string]bool)
	}
	p.values[key] = v
}

func (p *fakeProps) GetBool(key string, fallback bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.values[key]; ok {
		return v
	}
	return fallback
}

type fakePlane struct {
	typ   PlaneType
	ctx   uint64
	fail  bool
	flips int
}

func (p *fakePlane) Flip() bool {
	if p.fail {
		return false
	}
	p.flips++
	return true
}

func (p *fakePlane) HardwareContext() uint64 { return p.ctx }
func (p *fakePlane) Type() PlaneType         { return p.typ }

type fakeAssignment map[int]Plane

func (a fakeAssignment) Plane(index int) Plane { return a[index] }

type fakeDevice struct {
	posts [][]HardwareLayer
	err   error
}

func (d *fakeDevice) Post(layers []HardwareLayer) error {
	if d.err != nil {
		return d.err
	}
	cp := make([]HardwareLayer, len(layers))
	copy(cp, layers)
	d.posts = append(d.posts, cp)
	return nil
}

type fakeRegistry struct {
	dev Device
	err error
}

func (r *fakeRegistry) ResolveDisplayDevice() (Device, error) {
	return r.dev, r.err
}

const (
	testVideoHandle BufferHandle = 0x10
	testUIHandle    BufferHandle = 0x20
	testFBHandle    BufferHandle = 0x30
)

// newTestAnalyzer returns an initialized analyzer whose buffer store knows a
// video buffer and a UI buffer, with 1920x1080 modes on displays 0..2.
func newTestAnalyzer() (*Analyzer, *fakeCoordinator, *fakeProps) {
	buffers := newFakeBuffers()
	buffers.put(testVideoHandle, FormatNV12, Stride{Y: 2048})
	buffers.put(testUIHandle, FormatRGBA8888, Stride{RGB: 7680})
	buffers.put(testFBHandle, FormatRGBA8888, Stride{RGB: 7680})

	coord := &fakeCoordinator{}
	props := &fakeProps{}
	a := NewAnalyzer(AnalyzerDeps{
		Buffers:     buffers,
		Formats:     PlaneCapabilities{},
		Modes:       fakeModes{0: {1920, 1080}, 1: {1920, 1080}, 2: {1920, 1080}},
		Coordinator: coord,
		Properties:  props,
	}, nil, nil)
	_ = a.Initialize()
	return a, coord, props
}

func fullScreen() Rect { return Rect{Right: 1920, Bottom: 1080} }

// videoDisplay returns contents with a video layer, a UI layer and a
// framebuffer target, with geometry marked changed.
func videoDisplay(videoFrame Rect) *DisplayContents {
	d := &DisplayContents{Layers: []*Layer{
		{Handle: testVideoHandle, SourceCrop: fullScreen(), DisplayFrame: videoFrame, Blending: BlendingNone},
		{Handle: testUIHandle, SourceCrop: fullScreen(), DisplayFrame: fullScreen(), Blending: BlendingPremult},
		{Handle: testFBHandle, CompositionType: CompositionFramebufferTarget, SourceCrop: fullScreen(), DisplayFrame: fullScreen()},
	}}
	d.MarkGeometryChanged()
	return d
}

func uiDisplay() *DisplayContents {
	return &DisplayContents{Layers: []*Layer{
		{Handle: testUIHandle, SourceCrop: fullScreen(), DisplayFrame: fullScreen(), Blending: BlendingPremult},
		{Handle: testFBHandle, CompositionType: CompositionFramebufferTarget, SourceCrop: fullScreen(), DisplayFrame: fullScreen()},
	}}
}
