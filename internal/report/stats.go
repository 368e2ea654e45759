// Package report turns an accumulated ledger into human-facing artifacts: a
// spreadsheet with embedded evidence images, a summary, and an HTML chart.
package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/laneguard/internal/ledger"
)

// Summary aggregates violation statistics for one run.
type Summary struct {
	TotalViolations int            `json:"total_violations"`
	ByClass         map[string]int `json:"by_class"`
	FirstFrame      int64          `json:"first_frame"`
	LastFrame       int64          `json:"last_frame"`

	// Inter-confirmation gaps in frames; zero when fewer than two records.
	MeanFrameGap   float64 `json:"mean_frame_gap"`
	StddevFrameGap float64 `json:"stddev_frame_gap"`
	MaxFrameGap    float64 `json:"max_frame_gap"`
}

// Summarise computes run statistics from records in confirmation order.
func Summarise(records []ledger.ViolationRecord) Summary {
	s := Summary{ByClass: make(map[string]int)}
	if len(records) == 0 {
		return s
	}

	s.TotalViolations = len(records)
	s.FirstFrame = records[0].FrameIndex
	s.LastFrame = records[0].FrameIndex

	frames := make([]float64, 0, len(records))
	for _, rec := range records {
		s.ByClass[rec.Class]++
		frames = append(frames, float64(rec.FrameIndex))
		if rec.FrameIndex < s.FirstFrame {
			s.FirstFrame = rec.FrameIndex
		}
		if rec.FrameIndex > s.LastFrame {
			s.LastFrame = rec.FrameIndex
		}
	}

	if len(frames) < 2 {
		return s
	}

	sort.Float64s(frames)
	gaps := make([]float64, len(frames)-1)
	for i := 1; i < len(frames); i++ {
		gaps[i-1] = frames[i] - frames[i-1]
		if gaps[i-1] > s.MaxFrameGap {
			s.MaxFrameGap = gaps[i-1]
		}
	}

	s.MeanFrameGap = stat.Mean(gaps, nil)
	if len(gaps) > 1 {
		s.StddevFrameGap = stat.StdDev(gaps, nil)
	}
	return s
}

// ClassBreakdown returns (class, count) pairs sorted by descending count,
// ties broken by class name for deterministic output.
func (s Summary) ClassBreakdown() []ClassCount {
	out := make([]ClassCount, 0, len(s.ByClass))
	for class, count := range s.ByClass {
		out = append(out, ClassCount{Class: class, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Class < out[j].Class
	})
	return out
}

// ClassCount is one row of the per-class breakdown.
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}
