package surgegate

import (
	"sync"
	"time"
)

// MetricsSnapshot is a read-only copy of the coordinator's shared metrics
// record, safe to retain and inspect without locking.
type MetricsSnapshot struct {
	Level               SurgeLevel
	ActiveCount         int
	QueueDepth          int
	ResourceUtilization float64 // fraction in [0,1], max of cpu and memory
	ResourceState       ResourceState
	AvgProcessingTime   time.Duration
	P99ProcessingTime   time.Duration
	CadenceStability    float64 // bounded score in [0,1]
	PolicyViolations    int64
	Completed           int64
	Failed              int64
}

// metrics is the single shared mutable record of the subsystem. Every
// mutation goes through its mutex; the only writers are the admission
// loop, request-task completions, and the two background monitors.
type metrics struct {
	mu sync.Mutex

	level       SurgeLevel
	active      int
	queueDepth  int
	utilization float64
	utilPeak    float64 // high-water mark since last resetPeak
	stability   float64 // maintained by the cadence monitor, clamped [0,1]
	violations  int64
	completed   int64
	failed      int64

	durations *DurationTracker
}

func newMetrics(sampleWindow int) *metrics {
	return &metrics{
		stability: 1.0,
		durations: NewDurationTracker(sampleWindow),
	}
}

func (m *metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, _, p99 := m.durations.Percentiles()
	return MetricsSnapshot{
		Level:               m.level,
		ActiveCount:         m.active,
		QueueDepth:          m.queueDepth,
		ResourceUtilization: m.utilization,
		ResourceState:       ClassifyResource(m.utilization),
		AvgProcessingTime:   m.durations.Mean(),
		P99ProcessingTime:   p99,
		CadenceStability:    m.stability,
		PolicyViolations:    m.violations,
		Completed:           m.completed,
		Failed:              m.failed,
	}
}

func (m *metrics) setLevel(l SurgeLevel) {
	m.mu.Lock()
	m.level = l
	m.mu.Unlock()
}

func (m *metrics) currentLevel() SurgeLevel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// incActive reserves an admission slot. Called only by the admission
// loop, which is the sole goroutine that grows the active set: the
// ceiling check and the increment therefore cannot interleave with
// another admitter.
func (m *metrics) incActive() {
	m.mu.Lock()
	m.active++
	m.mu.Unlock()
}

func (m *metrics) activeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *metrics) setQueueDepth(n int) {
	m.mu.Lock()
	m.queueDepth = n
	m.mu.Unlock()
}

func (m *metrics) setUtilization(u float64) {
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	m.mu.Lock()
	m.utilization = u
	if u > m.utilPeak {
		m.utilPeak = u
	}
	m.mu.Unlock()
}

// resetPeak clears the utilization high-water mark at the start of a
// batch and returns nothing; peakUtilization reads it at the end.
func (m *metrics) resetPeak() {
	m.mu.Lock()
	m.utilPeak = m.utilization
	m.mu.Unlock()
}

func (m *metrics) peakUtilization() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.utilPeak
}

func (m *metrics) setStability(s float64) {
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	m.mu.Lock()
	m.stability = s
	m.mu.Unlock()
}

func (m *metrics) currentStability() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stability
}

func (m *metrics) recordViolation() {
	m.mu.Lock()
	m.violations++
	m.mu.Unlock()
}

// recordCompletion releases the task's slot and folds its duration into
// the rolling window. recordDuration is false for requests that finished
// without integration consent: they are not failures, but their timing
// is not representative work.
func (m *metrics) recordCompletion(d time.Duration, recordDuration bool) {
	m.mu.Lock()
	m.active--
	m.completed++
	m.mu.Unlock()
	if recordDuration {
		m.durations.Record(d)
	}
}

func (m *metrics) recordFailure() {
	m.mu.Lock()
	m.active--
	m.failed++
	m.mu.Unlock()
}

func (m *metrics) counters() (completed, failed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed, m.failed
}

// reset returns the record to its defaults. Called only by the drain
// protocol. The active count is not zeroed: each slot is owned by a
// live task and released only by that task's completion or failure,
// even when the drain wait timed out with work still in flight.
func (m *metrics) reset() {
	m.mu.Lock()
	m.level = LevelNormal
	m.queueDepth = 0
	m.utilization = 0
	m.utilPeak = 0
	m.stability = 1.0
	m.violations = 0
	m.completed = 0
	m.failed = 0
	m.mu.Unlock()
	m.durations.Reset()
}
