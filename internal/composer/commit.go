package composer

import (
	"fmt"
	"log/slog"

	"hwc-composer/internal/platform/logger"
	"hwc-composer/internal/platform/metrics"
)

// MaximumLayerNumber is the default capacity of the per-cycle commit buffer.
const MaximumLayerNumber = 20

// CommitContext turns finalized display contents and their plane assignments
// into one batched device post per cycle:
//
//	ctx.CommitBegin()
//	for each display: ctx.CommitContents(display, planes)
//	ctx.CommitEnd()
//
// It is driven from the composition goroutine only.
type CommitContext struct {
	registry  DeviceRegistry
	maxLayers int
	log       *slog.Logger
	metrics   *metrics.Metrics

	device      Device
	initialized bool
	layers      []HardwareLayer
	aborted     bool
}

// NewCommitContext returns an uninitialized CommitContext. If maxLayers <= 0,
// MaximumLayerNumber is used. Metrics may be nil.
func NewCommitContext(registry DeviceRegistry, maxLayers int, log *slog.Logger, m *metrics.Metrics) *CommitContext {
	if maxLayers <= 0 {
		maxLayers = MaximumLayerNumber
	}
	return &CommitContext{
		registry:  registry,
		maxLayers: maxLayers,
		log:       logger.OrDiscard(log).With(slog.String("subsystem", "commit")),
		metrics:   m,
	}
}

// Initialize resolves the display device. On failure the context stays
// uninitialized.
func (c *CommitContext) Initialize() error {
	if c.registry == nil {
		return fmt.Errorf("%w: no device registry", ErrDeviceUnavailable)
	}
	device, err := c.registry.ResolveDisplayDevice()
	if err != nil {
		c.log.Error("failed to resolve display device", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}
	if device == nil {
		c.log.Error("failed to get display device")
		return ErrDeviceUnavailable
	}

	c.device = device
	c.layers = make([]HardwareLayer, 0, c.maxLayers)
	c.aborted = false
	c.initialized = true
	return nil
}

// CommitBegin starts a cycle with an empty commit buffer.
func (c *CommitContext) CommitBegin() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	clear(c.layers)
	c.layers = c.layers[:0]
	c.aborted = false
	return nil
}

// CommitContents flips the plane assigned to each of display's layers and
// queues a hardware descriptor for every successful flip. Layers without a
// buffer or a plane, and planes that fail to flip, are dropped for this
// cycle. Exceeding the buffer capacity aborts the cycle with ErrLayerOverflow.
func (c *CommitContext) CommitContents(display *DisplayContents, planes PlaneAssignment) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if display == nil || planes == nil {
		c.log.Error("invalid parameters")
		return ErrInvalidArgument
	}

	for i, layer := range display.Layers {
		if layer == nil || layer.Handle == 0 {
			c.skip(i, "no_buffer")
			continue
		}

		plane := planes.Plane(i)
		if plane == nil {
			c.skip(i, "no_plane")
			continue
		}

		if !plane.Flip() {
			c.skip(i, "flip_failed")
			continue
		}

		if len(c.layers) >= c.maxLayers {
			c.log.Error("layer count exceeds the limit", slog.Int("limit", c.maxLayers))
			c.aborted = true
			if c.metrics != nil {
				c.metrics.IncCommitFailures("overflow")
			}
			return ErrLayerOverflow
		}

		hw := HardwareLayer{Layer: layer, Context: plane.HardwareContext()}
		c.layers = append(c.layers, hw)

		c.log.Debug("layer queued",
			slog.Int("count", len(c.layers)),
			slog.Uint64("handle", uint64(layer.Handle)),
			slog.Uint64("transform", uint64(layer.Transform)),
			slog.Int("blending", int(layer.Blending)),
			slog.Any("source_crop", layer.SourceCrop),
			slog.Any("display_frame", layer.DisplayFrame),
			slog.Uint64("context", hw.Context))
	}
	return nil
}

// CommitEnd posts the queued descriptors. A cycle with nothing queued
// succeeds without touching the device; an aborted cycle never posts.
func (c *CommitContext) CommitEnd() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if c.aborted {
		return ErrLayerOverflow
	}

	c.log.Debug("commit end", slog.Int("count", len(c.layers)))
	if len(c.layers) == 0 {
		return nil
	}

	if err := c.device.Post(c.layers); err != nil {
		c.log.Error("post failed", slog.String("error", err.Error()))
		if c.metrics != nil {
			c.metrics.IncCommitFailures("post")
		}
		return fmt.Errorf("%w: %w", ErrPostFailed, err)
	}

	if c.metrics != nil {
		c.metrics.AddLayersPosted(len(c.layers))
	}
	return nil
}

// CompositionComplete is a completion hook; there is nothing to wait for.
func (c *CommitContext) CompositionComplete() error {
	return nil
}

// Deinitialize releases the device. Safe to call repeatedly.
func (c *CommitContext) Deinitialize() {
	c.device = nil
	c.layers = nil
	c.aborted = false
	c.initialized = false
}

// Initialized reports whether the context holds a device.
func (c *CommitContext) Initialized() bool {
	return c.initialized
}

// Pending returns the number of descriptors queued in the current cycle.
func (c *CommitContext) Pending() int {
	return len(c.layers)
}

// Capacity returns the commit buffer capacity.
func (c *CommitContext) Capacity() int {
	return c.maxLayers
}

func (c *CommitContext) skip(index int, reason string) {
	c.log.Debug("layer skipped", slog.Int("index", index), slog.String("reason", reason))
	if c.metrics != nil {
		c.metrics.IncLayersSkipped(reason)
	}
}
