package violation

import "sync"

// Constants for monitor configuration
const (
	// DefaultConfirmThreshold is the number of consecutive outside-lane frames
	// required before an excursion is confirmed as a violation. Chosen to absorb
	// camera vibration and single-frame occlusion while keeping confirmation
	// latency near half a second at common frame rates.
	DefaultConfirmThreshold = 15
	// DefaultEvictionGraceFrames is how many frames an identity may go unseen
	// before its state is dropped.
	DefaultEvictionGraceFrames = 90
)

// MonitorConfig holds configuration parameters for the violation monitor.
type MonitorConfig struct {
	ConfirmThreshold    int // Consecutive outside-lane frames to confirm
	EvictionGraceFrames int // Unseen frames before a vehicle is evicted
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		ConfirmThreshold:    DefaultConfirmThreshold,
		EvictionGraceFrames: DefaultEvictionGraceFrames,
	}
}

// VehicleState tracks one vehicle identity across frames.
type VehicleState struct {
	// Identity
	Identity string
	Class    string // Vehicle class label from the detector ("car", "truck", ...)

	// Excursion counting
	ConsecutiveOutside int  // Trailing run of outside-lane observations
	Confirmed          bool // Set once per excursion when the run reaches threshold

	// Recency
	FirstSeenFrame int64
	LastSeenFrame  int64

	// Aggregates
	ObservationCount int
	ExcursionCount   int // Completed excursions (outside runs ended by an in-lane frame)
}

// Confirmation is the one-shot event emitted when a vehicle's excursion
// reaches the configured threshold.
type Confirmation struct {
	Identity   string
	Class      string
	FrameIndex int64
}

// Monitor owns the per-vehicle confirmation state machines. Observations for a
// single identity must arrive in strictly increasing frame order; the monitor
// itself is safe for concurrent readers of Stats while a single writer feeds
// observations.
type Monitor struct {
	vehicles map[string]*VehicleState
	config   MonitorConfig

	confirmedTotal int64

	mu sync.RWMutex
}

// NewMonitor creates a monitor with the specified configuration. Zero values
// in the config fall back to defaults.
func NewMonitor(config MonitorConfig) *Monitor {
	if config.ConfirmThreshold <= 0 {
		config.ConfirmThreshold = DefaultConfirmThreshold
	}
	if config.EvictionGraceFrames <= 0 {
		config.EvictionGraceFrames = DefaultEvictionGraceFrames
	}
	return &Monitor{
		vehicles: make(map[string]*VehicleState),
		config:   config,
	}
}

// Observe feeds one per-frame signal for a visible vehicle. A missing
// observation (vehicle not detected this frame) must be expressed by not
// calling Observe at all; only an explicit in-lane observation resets the
// excursion counter. Returns a Confirmation exactly once per contiguous
// excursion, at the frame the counter reaches the threshold.
func (m *Monitor) Observe(identity, class string, outside bool, frameIndex int64) *Confirmation {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vehicles[identity]
	if !ok {
		v = &VehicleState{
			Identity:       identity,
			Class:          class,
			FirstSeenFrame: frameIndex,
		}
		m.vehicles[identity] = v
	}

	v.LastSeenFrame = frameIndex
	v.ObservationCount++
	if class != "" {
		v.Class = class
	}

	if !outside {
		if v.ConsecutiveOutside > 0 {
			v.ExcursionCount++
		}
		// Back in lane: the excursion is over. A future excursion must
		// re-accumulate the full threshold before reconfirming.
		v.ConsecutiveOutside = 0
		v.Confirmed = false
		return nil
	}

	v.ConsecutiveOutside++
	if v.Confirmed || v.ConsecutiveOutside != m.config.ConfirmThreshold {
		return nil
	}

	v.Confirmed = true
	m.confirmedTotal++
	return &Confirmation{
		Identity:   v.Identity,
		Class:      v.Class,
		FrameIndex: frameIndex,
	}
}

// Evict removes vehicles unseen for longer than the grace window and returns
// how many were removed. Eviction never touches already-recorded violations.
func (m *Monitor) Evict(currentFrame int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	grace := int64(m.config.EvictionGraceFrames)
	removed := 0
	for id, v := range m.vehicles {
		if currentFrame-v.LastSeenFrame > grace {
			delete(m.vehicles, id)
			removed++
		}
	}
	return removed
}

// Reset clears all per-vehicle state between runs.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles = make(map[string]*VehicleState)
	m.confirmedTotal = 0
}

// Vehicle returns the state for an identity, or nil if not tracked.
func (m *Monitor) Vehicle(identity string) *VehicleState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vehicles[identity]
}

// MonitorStats summarises monitor state for the API and metrics.
type MonitorStats struct {
	Tracked        int   `json:"tracked"`
	InExcursion    int   `json:"in_excursion"`
	Confirmed      int   `json:"confirmed"`
	ConfirmedTotal int64 `json:"confirmed_total"`
}

// Stats returns counts of vehicles by state.
func (m *Monitor) Stats() MonitorStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := MonitorStats{Tracked: len(m.vehicles), ConfirmedTotal: m.confirmedTotal}
	for _, v := range m.vehicles {
		if v.ConsecutiveOutside > 0 {
			s.InExcursion++
		}
		if v.Confirmed {
			s.Confirmed++
		}
	}
	return s
}
