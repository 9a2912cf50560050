package formguard

import "sync/atomic"

// MetricID defines a public type used by formguard APIs.
//
// MetricID instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricTokenIssued is an exported constant or variable used by the token guard.
	MetricTokenIssued MetricID = iota
	// MetricValidateSuccess is an exported constant or variable used by the token guard.
	MetricValidateSuccess
	// MetricValidateInvalid is an exported constant or variable used by the token guard.
	MetricValidateInvalid
	// MetricValidateExpired is an exported constant or variable used by the token guard.
	MetricValidateExpired
	// MetricValidateMissing is an exported constant or variable used by the token guard.
	MetricValidateMissing
	// MetricValidateReused is an exported constant or variable used by the token guard.
	MetricValidateReused

	metricIDCount
)

// Metrics holds in-process atomic counters for the token guard. When
// disabled, every operation is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig].
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc describes the inc operation and its observable behavior.
//
// Inc does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get describes the get operation and its observable behavior.
//
// Get does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= metricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot struct {
	Counters [metricIDCount]uint64
}

// Snapshot describes the snapshot operation and its observable behavior.
//
// Snapshot does not mutate shared global state and can be used concurrently
// when the receiver and dependencies are concurrently safe.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var out MetricsSnapshot
	if m == nil || !m.enabled {
		return out
	}
	for i := range m.counters {
		out.Counters[i] = m.counters[i].Load()
	}
	return out
}

func resultMetric(result ValidationResult) MetricID {
	switch result {
	case ResultSuccess:
		return MetricValidateSuccess
	case ResultExpired:
		return MetricValidateExpired
	case ResultMissing:
		return MetricValidateMissing
	case ResultReused:
		return MetricValidateReused
	default:
		return MetricValidateInvalid
	}
}
