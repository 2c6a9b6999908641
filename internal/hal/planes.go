package hal

import (
	"sync"
	"sync/atomic"

	"hwc-composer/internal/composer"
)

// Plane is a simulated hardware plane.
type Plane struct {
	ID        int
	PlaneType composer.PlaneType

	failFlip atomic.Bool
	flips    atomic.Int64
}

// NewPlane returns a plane of the given type.
func NewPlane(id int, t composer.PlaneType) *Plane {
	return &Plane{ID: id, PlaneType: t}
}

// Type implements composer.AssignablePlane.
func (p *Plane) Type() composer.PlaneType { return p.PlaneType }

// Flip implements composer.Plane.
func (p *Plane) Flip() bool {
	if p.failFlip.Load() {
		return false
	}
	p.flips.Add(1)
	return true
}

// HardwareContext implements composer.Plane. The context encodes plane type
// and id.
func (p *Plane) HardwareContext() uint64 {
	return uint64(p.PlaneType)<<32 | uint64(p.ID)
}

// SetFlipFailure makes Flip fail while fail is true.
func (p *Plane) SetFlipFailure(fail bool) { p.failFlip.Store(fail) }

// Flips returns the number of successful flips.
func (p *Plane) Flips() int64 { return p.flips.Load() }

// PlanePool is a composer.PlaneSource with a fixed set of planes per display.
type PlanePool struct {
	mu     sync.RWMutex
	planes map[int][]*Plane
}

// NewPlanePool returns an empty pool.
func NewPlanePool() *PlanePool {
	return &PlanePool{planes: make(map[int][]*Plane)}
}

// NewDefaultPlanePool gives each of n displays one primary, two sprite and
// one overlay plane. Plane ids are unique across displays.
func NewDefaultPlanePool(n int) *PlanePool {
	pool := NewPlanePool()
	id := 0
	for d := 0; d < n; d++ {
		for _, t := range []composer.PlaneType{composer.PlanePrimary, composer.PlaneSprite, composer.PlaneSprite, composer.PlaneOverlay} {
			pool.Add(d, NewPlane(id, t))
			id++
		}
	}
	return pool
}

// Add gives display another plane.
func (p *PlanePool) Add(display int, plane *Plane) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.planes[display] = append(p.planes[display], plane)
}

// Planes implements composer.PlaneSource.
func (p *PlanePool) Planes(display int) []composer.AssignablePlane {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]composer.AssignablePlane, 0, len(p.planes[display]))
	for _, pl := range p.planes[display] {
		out = append(out, pl)
	}
	return out
}
