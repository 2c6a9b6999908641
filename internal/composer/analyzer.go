package composer

import (
	"log/slog"
	"sync/atomic"

	"hwc-composer/internal/platform/logger"
	"hwc-composer/internal/platform/metrics"
)

// PropertyVideoExtendedMode toggles video extended mode at runtime.
const PropertyVideoExtendedMode = "hwc.video.extmode.enable"

// AnalyzerDeps are the collaborators the Analyzer consults. Nil collaborators
// degrade gracefully: no buffers means no video layers are found, no mode
// provider means no layer counts as embedded, no properties means extended
// mode is enabled.
type AnalyzerDeps struct {
	Buffers     BufferManager
	Formats     FormatQuery
	Modes       ModeInfoProvider
	Coordinator Coordinator
	Properties  PropertyStore

	// SuppressOverlayWhilePreparing disallows overlay use while a video is
	// preparing, so a protected video never shows up on an unprotected
	// overlay surface. Off by default.
	SuppressOverlayWhilePreparing bool
}

// Analyzer holds cross-display, cross-cycle composition policy. It rewrites
// each cycle's display contents for hotplug, blank and video decisions
// before planes are assigned.
//
// AnalyzeContents must be driven from a single goroutine. The Post* methods
// and the query methods are safe from any goroutine; queries observe the
// state of the most recent cycle.
type Analyzer struct {
	deps    AnalyzerDeps
	log     *slog.Logger
	metrics *metrics.Metrics

	initialized             atomic.Bool
	enableVideoExtendedMode atomic.Bool
	videoExtendedMode       atomic.Bool
	forceCloneMode          atomic.Bool
	blankDevice             atomic.Bool
	videoPlaying            atomic.Bool
	videoPreparing          atomic.Bool
	overlayAllowed          atomic.Bool
	policyReenabled         atomic.Bool

	events eventQueue
}

// NewAnalyzer returns an uninitialized Analyzer. Metrics may be nil.
func NewAnalyzer(deps AnalyzerDeps, log *slog.Logger, m *metrics.Metrics) *Analyzer {
	a := &Analyzer{
		deps:    deps,
		log:     logger.OrDiscard(log).With(slog.String("subsystem", "analyzer")),
		metrics: m,
	}
	a.enableVideoExtendedMode.Store(true)
	a.overlayAllowed.Store(true)
	return a
}

// Initialize loads the extended mode policy and resets all state. It never
// fails: a missing or unreadable property leaves extended mode enabled.
func (a *Analyzer) Initialize() error {
	a.enableVideoExtendedMode.Store(a.readExtendedModeProperty())
	a.videoExtendedMode.Store(false)
	a.forceCloneMode.Store(false)
	a.blankDevice.Store(false)
	a.videoPlaying.Store(false)
	a.videoPreparing.Store(false)
	a.overlayAllowed.Store(true)
	a.policyReenabled.Store(false)
	a.events.clear()
	a.initialized.Store(true)

	a.log.Info("analyzer initialized",
		slog.Bool("video_extended_mode_enabled", a.enableVideoExtendedMode.Load()))
	return nil
}

// Deinitialize drops pending events. Safe to call repeatedly.
func (a *Analyzer) Deinitialize() {
	a.events.clear()
	a.initialized.Store(false)
}

// AnalyzeContents runs one analysis cycle over displays, indexed by display
// id with nil for inactive displays. The caller grants the Analyzer
// exclusive write access to displays for the duration of the call; nothing
// is retained after it returns.
func (a *Analyzer) AnalyzeContents(displays []*DisplayContents) error {
	if !a.initialized.Load() {
		return ErrNotInitialized
	}

	a.HandlePendingEvents(displays)

	if a.blankDevice.Load() {
		a.BlankSecondaryDevice(displays)
	}

	if a.enableVideoExtendedMode.Load() {
		if a.policyReenabled.Swap(false) {
			for _, content := range displays {
				if content != nil {
					content.MarkGeometryChanged()
				}
			}
		}
		a.DetectVideoExtendedMode(displays)
		if a.videoExtendedMode.Load() && len(displays) > DisplayPrimary {
			a.DetectTrickMode(displays[DisplayPrimary])
		}
	} else if a.videoExtendedMode.Load() {
		a.videoExtendedMode.Store(false)
		a.forceCloneMode.Store(false)
		a.log.Info("video extended mode disabled by policy")
	}

	if a.metrics != nil {
		a.metrics.SetAnalyzerState(a.videoPlaying.Load(), a.CheckVideoExtendedMode(), a.blankDevice.Load())
	}
	return nil
}

// DetectTrickMode looks for a trick-mode layer on the primary display and
// forces it back to GPU composition. A change in trick state marks the
// primary geometry as changed and updates forced clone mode.
func (a *Analyzer) DetectTrickMode(primary *DisplayContents) {
	if primary == nil {
		return
	}

	detected := false
	for _, layer := range primary.Layers {
		if layer != nil && layer.Flags&FlagTrickMode != 0 {
			detected = true
			layer.CompositionType = CompositionFramebuffer
			break
		}
	}

	if detected != a.forceCloneMode.Load() {
		primary.MarkGeometryChanged()
		a.forceCloneMode.Store(detected)
		a.log.Info("trick mode changed", slog.Bool("force_clone_mode", detected))
	}
}

// DetectVideoExtendedMode decides whether the video shown on the primary
// display is also shown full screen on a secondary display. The result is
// only recomputed when some active display reports a geometry change.
//
// Only the first secondary display carrying the primary's video buffer is
// considered.
func (a *Analyzer) DetectVideoExtendedMode(displays []*DisplayContents) {
	if !a.videoPlaying.Load() {
		a.videoExtendedMode.Store(false)
		a.forceCloneMode.Store(false)
		return
	}

	geometryChanged := false
	active := 0
	for _, content := range displays {
		if content == nil {
			continue
		}
		active++
		if content.GeometryChanged() {
			geometryChanged = true
		}
	}

	if active <= 1 {
		a.videoExtendedMode.Store(false)
		return
	}

	if !geometryChanged {
		return
	}

	a.videoExtendedMode.Store(false)

	primary := displays[DisplayPrimary]
	if primary == nil {
		return
	}

	var videoHandle BufferHandle
	found := false
	for _, layer := range primary.contentLayers() {
		if a.isVideoLayer(layer) {
			videoHandle = layer.Handle
			found = true
			break
		}
	}
	if !found {
		return
	}

	for i := DisplayPrimary + 1; i < len(displays); i++ {
		content := displays[i]
		if content == nil {
			continue
		}
		for _, layer := range content.contentLayers() {
			if layer == nil || layer.Handle != videoHandle {
				continue
			}
			embedded := a.isVideoEmbedded(i, layer)
			a.log.Debug("video layer mirrored",
				slog.Int("display", i),
				slog.Uint64("handle", uint64(videoHandle)),
				slog.Bool("embedded", embedded))
			if !embedded {
				a.videoExtendedMode.Store(true)
			}
			return
		}
	}
}

// CheckVideoExtendedMode reports whether extended mode is in effect. Forced
// clone mode from trick playback always wins.
func (a *Analyzer) CheckVideoExtendedMode() bool {
	return a.videoExtendedMode.Load() && !a.forceCloneMode.Load()
}

// IsVideoExtendedModeEnabled re-reads the policy property on every call so
// the policy can be toggled at runtime. Turning the policy back on forces
// detection on the next cycle.
func (a *Analyzer) IsVideoExtendedModeEnabled() bool {
	enabled := a.readExtendedModeProperty()
	if prev := a.enableVideoExtendedMode.Swap(enabled); enabled && !prev {
		a.policyReenabled.Store(true)
	}
	a.log.Debug("video extended mode policy", slog.Bool("enabled", enabled))
	return enabled
}

// IsVideoPlaying reports the last video state drained from the event queue.
func (a *Analyzer) IsVideoPlaying() bool {
	return a.videoPlaying.Load()
}

// IsOverlayAllowed reports whether plane assignment may use overlay planes.
func (a *Analyzer) IsOverlayAllowed() bool {
	return a.overlayAllowed.Load()
}

// State returns a copy of the policy flags.
func (a *Analyzer) State() AnalyzerState {
	return AnalyzerState{
		Initialized:              a.initialized.Load(),
		VideoExtendedModeEnabled: a.enableVideoExtendedMode.Load(),
		VideoExtendedMode:        a.videoExtendedMode.Load(),
		ForceCloneMode:           a.forceCloneMode.Load(),
		BlankDevice:              a.blankDevice.Load(),
		VideoPlaying:             a.videoPlaying.Load(),
		VideoPreparing:           a.videoPreparing.Load(),
		OverlayAllowed:           a.overlayAllowed.Load(),
		PendingEvents:            a.events.len(),
	}
}

// PostHotplugEvent reports a display connection change. A disconnect resets
// the vsync source immediately; a connect is handled on the next cycle.
func (a *Analyzer) PostHotplugEvent(connected bool) {
	if !connected {
		a.log.Info("display disconnected, resetting vsync source")
		a.resetVsyncSource()
		return
	}
	a.postEvent(HotplugEvent(connected))
}

// PostVideoEvent reports a video playback state change.
func (a *Analyzer) PostVideoEvent(preparing, playing bool) {
	a.postEvent(VideoEvent(preparing, playing))
}

// PostBlankEvent reports a blank or unblank request for secondary displays.
func (a *Analyzer) PostBlankEvent(blank bool) {
	a.postEvent(BlankEvent(blank))
}

func (a *Analyzer) postEvent(e Event) {
	a.events.push(e)
	a.log.Debug("event posted", slog.String("event_id", e.ID), slog.String("kind", e.Kind.String()))
	if a.metrics != nil {
		a.metrics.IncEventsPosted(e.Kind.String())
	}
	if a.deps.Coordinator != nil {
		a.deps.Coordinator.RequestRecomposition()
	}
}

// HandlePendingEvents applies queued events in arrival order against this
// cycle's displays.
func (a *Analyzer) HandlePendingEvents(displays []*DisplayContents) {
	for _, e := range a.events.drain() {
		a.log.Info("handling event",
			slog.String("event_id", e.ID),
			slog.String("kind", e.Kind.String()))

		switch e.Kind {
		case EventHotplug:
			a.resetVsyncSource()
		case EventBlank:
			a.handleBlankEvent(displays, e.Blank)
		case EventVideo:
			a.handleVideoEvent(displays, e.Preparing, e.Playing)
		}
	}
}

func (a *Analyzer) handleBlankEvent(displays []*DisplayContents, blank bool) {
	a.blankDevice.Store(blank)
	// secondary layers need their composition type re-evaluated
	for i, content := range displays {
		if i == DisplayPrimary || content == nil {
			continue
		}
		content.MarkGeometryChanged()
	}
	a.BlankSecondaryDevice(displays)
}

func (a *Analyzer) handleVideoEvent(displays []*DisplayContents, preparing, playing bool) {
	if a.deps.SuppressOverlayWhilePreparing && preparing != a.videoPreparing.Load() {
		for _, content := range displays {
			if content != nil {
				content.MarkGeometryChanged()
			}
		}
		a.overlayAllowed.Store(!preparing)
	}
	a.videoPreparing.Store(preparing)
	a.videoPlaying.Store(playing)
}

// BlankSecondaryDevice rewrites every non-primary display so it shows a
// cleared surface while blanked, or returns its layers to GPU composition
// when unblanked. The framebuffer target layer is left alone.
func (a *Analyzer) BlankSecondaryDevice(displays []*DisplayContents) {
	blank := a.blankDevice.Load()
	for i, content := range displays {
		if i == DisplayPrimary || content == nil {
			continue
		}
		for _, layer := range content.contentLayers() {
			if layer == nil {
				continue
			}
			if blank {
				layer.Hints |= HintClearFB
				layer.Flags &^= FlagSkipLayer
				layer.CompositionType = CompositionOverlay
			} else {
				layer.Hints &^= HintClearFB
				layer.CompositionType = CompositionFramebuffer
			}
		}
	}
}

func (a *Analyzer) resetVsyncSource() {
	if a.deps.Coordinator != nil {
		a.deps.Coordinator.ResetVsyncSource()
	}
	if a.metrics != nil {
		a.metrics.IncVsyncResets()
	}
}

func (a *Analyzer) readExtendedModeProperty() bool {
	if a.deps.Properties == nil {
		return true
	}
	return a.deps.Properties.GetBool(PropertyVideoExtendedMode, true)
}

func (a *Analyzer) isVideoLayer(layer *Layer) bool {
	if layer == nil || layer.Handle == 0 || a.deps.Buffers == nil || a.deps.Formats == nil {
		return false
	}
	buf := a.deps.Buffers.LockBuffer(layer.Handle)
	if buf == nil {
		a.log.Error("failed to lock buffer", slog.Uint64("handle", uint64(layer.Handle)))
		return false
	}
	defer a.deps.Buffers.UnlockBuffer(buf)
	return a.deps.Formats.IsVideoFormat(buf.Format())
}

// isVideoEmbedded reports whether layer is letterboxed on display, i.e. its
// destination is smaller than the display's native mode on both axes.
func (a *Analyzer) isVideoEmbedded(display int, layer *Layer) bool {
	if a.deps.Modes == nil {
		return false
	}
	mode, err := a.deps.Modes.ModeInfo(display)
	if err != nil {
		a.log.Error("failed to get mode info", slog.Int("display", display), slog.String("error", err.Error()))
		return false
	}

	dstW := layer.DisplayFrame.Width()
	dstH := layer.DisplayFrame.Height()
	a.log.Debug("video geometry",
		slog.Int("src_w", layer.SourceCrop.Width()),
		slog.Int("src_h", layer.SourceCrop.Height()),
		slog.Int("dst_w", dstW),
		slog.Int("dst_h", dstH),
		slog.Int("mode_w", mode.HDisplay),
		slog.Int("mode_h", mode.VDisplay))

	return dstW < mode.HDisplay-1 && dstH < mode.VDisplay-1
}
