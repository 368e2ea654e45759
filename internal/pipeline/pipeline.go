// Package pipeline drives the frame-sequential processing loop: for each
// decoded frame it classifies every tracked vehicle against the lane
// geometry, feeds the violation monitor, and on a confirmation captures
// evidence and appends to the session ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/banshee-data/laneguard/internal/evidence"
	"github.com/banshee-data/laneguard/internal/geom"
	"github.com/banshee-data/laneguard/internal/ledger"
	"github.com/banshee-data/laneguard/internal/monitoring"
	"github.com/banshee-data/laneguard/internal/violation"
)

// Detection is one tracked vehicle visible in a frame, as delivered by the
// external detector+tracker. Identities are stable across frames for the
// same physical vehicle.
type Detection struct {
	Identity string   `json:"identity"`
	Class    string   `json:"class"`
	Box      geom.Box `json:"box"`
}

// Frame bundles everything the external collaborators produce for one video
// frame. A vehicle absent from Detections is "not observed this frame",
// which is distinct from "observed in lane" and must not reset its counter.
type Frame struct {
	Index      int64
	Image      image.Image
	Detections []Detection
	Lanes      []geom.LaneRegion
}

// Source yields frames in strictly increasing index order. Next returns
// io.EOF when the stream ends.
type Source interface {
	Next(ctx context.Context) (*Frame, error)
}

// Config holds pipeline tuning.
type Config struct {
	MinBoxHeightPx int   // Detections shorter than this are ignored
	EvictEvery     int64 // Run monitor eviction every N frames; 0 disables
}

// Pipeline wires the monitor, classifier, recorder and ledger together. It is
// single-threaded: frames must be processed one at a time in temporal order,
// because the counting logic is only correct under in-order, gap-aware
// delivery per identity.
type Pipeline struct {
	monitor    *violation.Monitor
	classifier *geom.Classifier
	recorder   *evidence.Recorder
	ledger     *ledger.Ledger
	store      *ledger.Store // optional durable mirror; may be nil
	config     Config
}

// New creates a pipeline. The store may be nil to run without a durable mirror.
func New(monitor *violation.Monitor, classifier *geom.Classifier, recorder *evidence.Recorder, led *ledger.Ledger, store *ledger.Store, config Config) *Pipeline {
	return &Pipeline{
		monitor:    monitor,
		classifier: classifier,
		recorder:   recorder,
		ledger:     led,
		store:      store,
		config:     config,
	}
}

// Run consumes the source until it is exhausted or the context is cancelled.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ProcessFrame(frame)
	}
}

// ProcessFrame runs one frame through the classifier and monitor and returns
// the number of violations recorded. Evidence persistence failures are logged
// and counted but never recorded: a confirmed violation with no retrievable
// evidence must not appear in the export.
func (p *Pipeline) ProcessFrame(frame *Frame) int {
	monitoring.FramesProcessed.Inc()

	recorded := 0
	for _, det := range frame.Detections {
		if det.Box.Height() < p.config.MinBoxHeightPx {
			continue
		}

		outside := p.classifier.OutsideLane(det.Box, frame.Lanes)
		conf := p.monitor.Observe(det.Identity, det.Class, outside, frame.Index)
		if conf == nil {
			continue
		}

		monitoring.ViolationsConfirmed.WithLabelValues(conf.Class).Inc()
		monitoring.Logf("violation confirmed: vehicle=%s class=%s frame=%d", conf.Identity, conf.Class, conf.FrameIndex)

		rec, err := p.recorder.Capture(conf, frame.Image, det.Box)
		if err != nil {
			monitoring.EvidenceFailures.Inc()
			monitoring.Logf("evidence capture failed for %s at frame %d, dropping record: %v", conf.Identity, conf.FrameIndex, err)
			continue
		}

		p.ledger.Append(*rec)
		recorded++

		if p.store != nil {
			if err := p.store.InsertViolation(p.ledger.RunID(), *rec); err != nil {
				// The in-memory ledger stays authoritative; a mirror
				// failure must not take the run down.
				monitoring.Logf("violations db mirror write failed: %v", err)
			}
		}
	}

	if p.config.EvictEvery > 0 && frame.Index > 0 && frame.Index%p.config.EvictEvery == 0 {
		if removed := p.monitor.Evict(frame.Index); removed > 0 {
			monitoring.VehiclesEvicted.Add(float64(removed))
			monitoring.Debugf("evicted %d stale vehicles at frame %d", removed, frame.Index)
		}
	}
	monitoring.VehiclesTracked.Set(float64(p.monitor.Stats().Tracked))

	return recorded
}
