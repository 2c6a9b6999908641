package composer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"hwc-composer/internal/platform/logger"
	"hwc-composer/internal/platform/metrics"

	"github.com/google/uuid"
)

// PlaneSource hands out the plane pool of a display for one cycle.
type PlaneSource interface {
	Planes(display int) []AssignablePlane
}

// CycleStats summarizes composition cycles for diagnostics.
type CycleStats struct {
	Cycles       uint64 `json:"cycles"`
	Failures     uint64 `json:"failures"`
	LastPosted   int    `json:"last_posted"`
	LastTraceID  string `json:"last_trace_id,omitempty"`
	CommitLimit  int    `json:"commit_limit"`
	CommitActive bool   `json:"commit_initialized"`
}

// Compositor drives one composition cycle at a time: analysis, plane
// assignment, then a single batched commit across all displays.
type Compositor struct {
	analyzer *Analyzer
	commit   *CommitContext
	assigner *PlaneAssigner
	planes   PlaneSource
	log      *slog.Logger
	metrics  *metrics.Metrics

	cycles      atomic.Uint64
	failures    atomic.Uint64
	lastPosted  atomic.Int64
	lastTraceID atomic.Pointer[string]
	commitLimit int
	commitReady atomic.Bool
}

// NewCompositor wires the pipeline. Metrics may be nil.
func NewCompositor(analyzer *Analyzer, commit *CommitContext, assigner *PlaneAssigner, planes PlaneSource, log *slog.Logger, m *metrics.Metrics) *Compositor {
	return &Compositor{
		analyzer:    analyzer,
		commit:      commit,
		assigner:    assigner,
		planes:      planes,
		log:         logger.OrDiscard(log),
		metrics:     m,
		commitLimit: commit.Capacity(),
	}
}

// Analyzer returns the compositor's analyzer.
func (c *Compositor) Analyzer() *Analyzer {
	return c.analyzer
}

// Initialize brings up the analyzer and the commit context.
func (c *Compositor) Initialize() error {
	if err := c.analyzer.Initialize(); err != nil {
		return fmt.Errorf("initialize analyzer: %w", err)
	}
	if err := c.commit.Initialize(); err != nil {
		return fmt.Errorf("initialize commit context: %w", err)
	}
	c.commitReady.Store(true)
	return nil
}

// Deinitialize tears both components down. Safe to call repeatedly.
func (c *Compositor) Deinitialize() {
	c.commit.Deinitialize()
	c.analyzer.Deinitialize()
	c.commitReady.Store(false)
}

// Compose runs one cycle over displays (index 0 primary, nil for inactive
// displays). A display rejected with ErrInvalidArgument is skipped; any
// other commit error aborts the cycle before anything is posted.
func (c *Compositor) Compose(displays []*DisplayContents) error {
	traceID := uuid.NewString()
	c.lastTraceID.Store(&traceID)
	c.cycles.Add(1)
	if c.metrics != nil {
		c.metrics.IncCycles()
	}
	log := c.log.With(slog.String("trace_id", traceID))

	err := c.compose(log, displays)
	if err != nil {
		c.failures.Add(1)
		log.Error("composition cycle failed", slog.String("error", err.Error()))
	}
	return err
}

func (c *Compositor) compose(log *slog.Logger, displays []*DisplayContents) error {
	c.analyzer.IsVideoExtendedModeEnabled()
	if err := c.analyzer.AnalyzeContents(displays); err != nil {
		return fmt.Errorf("analyze contents: %w", err)
	}

	overlayAllowed := c.analyzer.IsOverlayAllowed()
	extended := c.analyzer.CheckVideoExtendedMode()
	assignments := make([]*LayerPlanes, len(displays))
	for i, d := range displays {
		if d == nil {
			continue
		}
		var pool []AssignablePlane
		if c.planes != nil {
			pool = c.planes.Planes(i)
		}
		assignments[i] = c.assigner.Assign(d, pool, overlayAllowed, extended && i == DisplayPrimary)
	}

	if err := c.commit.CommitBegin(); err != nil {
		return fmt.Errorf("commit begin: %w", err)
	}

	for i, d := range displays {
		if d == nil {
			continue
		}
		err := c.commit.CommitContents(d, assignments[i])
		if errors.Is(err, ErrInvalidArgument) {
			log.Warn("skipping display commit", slog.Int("display", i))
			continue
		}
		if err != nil {
			return fmt.Errorf("commit display %d: %w", i, err)
		}
	}

	posted := c.commit.Pending()
	if err := c.commit.CommitEnd(); err != nil {
		return fmt.Errorf("commit end: %w", err)
	}
	c.lastPosted.Store(int64(posted))

	log.Debug("composition cycle done",
		slog.Int("displays", len(displays)),
		slog.Int("posted", posted),
		slog.Bool("extended_mode", extended))

	return c.commit.CompositionComplete()
}

// Stats returns cycle counters. Safe from any goroutine.
func (c *Compositor) Stats() CycleStats {
	s := CycleStats{
		Cycles:       c.cycles.Load(),
		Failures:     c.failures.Load(),
		LastPosted:   int(c.lastPosted.Load()),
		CommitLimit:  c.commitLimit,
		CommitActive: c.commitReady.Load(),
	}
	if id := c.lastTraceID.Load(); id != nil {
		s.LastTraceID = *id
	}
	return s
}
