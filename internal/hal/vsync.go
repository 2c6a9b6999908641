package hal

import (
	"log/slog"
	"sync"

	"hwc-composer/internal/platform/logger"
)

// VsyncManager is a composer.Coordinator. Recomposition requests are
// delivered on a one-slot channel and coalesce while one is pending.
type VsyncManager struct {
	mu         sync.Mutex
	resets     int
	invalidate chan struct{}
	log        *slog.Logger
}

// NewVsyncManager returns a manager whose vsync source is the primary display.
func NewVsyncManager(log *slog.Logger) *VsyncManager {
	return &VsyncManager{
		invalidate: make(chan struct{}, 1),
		log:        logger.OrDiscard(log),
	}
}

// ResetVsyncSource implements composer.Coordinator. Safe to call
// concurrently with a composition cycle.
func (v *VsyncManager) ResetVsyncSource() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resets++
	v.log.Info("vsync source reset", slog.Int("resets", v.resets))
}

// RequestRecomposition implements composer.Coordinator. It never blocks.
func (v *VsyncManager) RequestRecomposition() {
	select {
	case v.invalidate <- struct{}{}:
	default:
	}
}

// Invalidations receives one value per coalesced recomposition request.
func (v *VsyncManager) Invalidations() <-chan struct{} {
	return v.invalidate
}

// Resets returns how many times the vsync source was reset.
func (v *VsyncManager) Resets() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.resets
}
