package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FramesProcessed counts frames consumed by the pipeline.
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laneguard",
		Name:      "frames_processed_total",
		Help:      "Frames consumed by the processing pipeline.",
	})

	// ViolationsConfirmed counts one-shot confirmation events by vehicle class.
	ViolationsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "laneguard",
		Name:      "violations_confirmed_total",
		Help:      "Confirmed lane violations.",
	}, []string{"class"})

	// EvidenceFailures counts evidence captures that failed to persist. A
	// confirmed violation with no retrievable evidence is dropped from the
	// ledger, so this counter is the only trace of those events.
	EvidenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laneguard",
		Name:      "evidence_failures_total",
		Help:      "Evidence captures dropped due to persistence errors.",
	})

	// VehiclesEvicted counts identities removed after the unseen grace window.
	VehiclesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "laneguard",
		Name:      "vehicles_evicted_total",
		Help:      "Vehicle states evicted after the tracking grace window.",
	})

	// VehiclesTracked gauges the number of live vehicle states.
	VehiclesTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "laneguard",
		Name:      "vehicles_tracked",
		Help:      "Vehicle identities currently tracked by the monitor.",
	})
)
