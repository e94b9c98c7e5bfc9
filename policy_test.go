package surgegate

import (
	"testing"
	"time"
)

// TestGovernorSteadyMultipliers checks the open-loop mapping from
// resource state to admission multiplier, before hysteresis engages.
func TestGovernorSteadyMultipliers(t *testing.T) {
	cases := []struct {
		state     ResourceState
		stability float64
		want      float64
	}{
		{ResourceAbundant, 1.0, 1.0},
		{ResourceAvailable, 1.0, 1.0},
		{ResourceConstrained, 1.0, 0.8},
		{ResourceCritical, 1.0, 0.5},
		{ResourceEmergency, 1.0, 0.25},
		{ResourceConstrained, 0.4, 0.4}, // unstable cadence halves it
		{ResourceEmergency, 0.4, 0.125},
	}
	for _, tc := range cases {
		g := &GovernorPolicy{MinHold: time.Millisecond}
		got := g.AdmissionMultiplier(tc.state, tc.stability)
		if got != tc.want {
			t.Errorf("AdmissionMultiplier(%s, %.1f) = %v, want %v",
				tc.state, tc.stability, got, tc.want)
		}
	}
	t.Logf("✓ steady-state multipliers over %d state/stability pairs", len(cases))
}

// TestGovernorHysteresis: after throttling, the policy holds the floor
// until both the minimum duration has passed and pressure has dropped to
// the available state.
func TestGovernorHysteresis(t *testing.T) {
	g := &GovernorPolicy{MinHold: 40 * time.Millisecond}

	if got := g.AdmissionMultiplier(ResourceCritical, 1.0); got != 0.5 {
		t.Fatalf("entering throttle: got %v, want 0.5", got)
	}
	if g.ThrottleEvents() != 1 {
		t.Fatalf("throttle events = %d, want 1", g.ThrottleEvents())
	}

	// Pressure relaxes immediately, but the hold has not elapsed.
	if got := g.AdmissionMultiplier(ResourceAbundant, 1.0); got != 0.5 {
		t.Errorf("inside hold window: got %v, want held at 0.5", got)
	}

	time.Sleep(50 * time.Millisecond)

	// Hold elapsed but pressure is still constrained: keep the floor.
	if got := g.AdmissionMultiplier(ResourceConstrained, 1.0); got != 0.5 {
		t.Errorf("hold elapsed under pressure: got %v, want 0.5", got)
	}

	// Hold elapsed and pressure genuinely low: release.
	if got := g.AdmissionMultiplier(ResourceAvailable, 1.0); got != 1.0 {
		t.Errorf("release: got %v, want 1.0", got)
	}

	// Re-entering throttle counts as a new episode.
	g.AdmissionMultiplier(ResourceEmergency, 1.0)
	if g.ThrottleEvents() != 2 {
		t.Errorf("throttle events = %d, want 2", g.ThrottleEvents())
	}
	t.Logf("✓ hysteresis: throttle held through %v and a pressured probe", g.MinHold)
}

// TestGovernorThrottlesAdmission wires the policy into a live pool and
// checks the ceiling actually shrinks under reported pressure.
func TestGovernorThrottlesAdmission(t *testing.T) {
	cfg := testConfig()
	m := newMetrics(cfg.SampleWindow)
	q := newAdmissionQueue(0)
	pool := newWorkerPool(cfg, q, m, nil, &GovernorPolicy{MinHold: time.Millisecond})

	m.setLevel(LevelEmergency) // ceiling 100 unthrottled
	m.setUtilization(0.99)     // emergency pressure: multiplier 0.25

	if got := pool.ceiling(); got != 25 {
		t.Errorf("throttled ceiling = %d, want 25", got)
	}

	m.setUtilization(0.10)
	// Hysteresis holds the floor for the minimum duration.
	time.Sleep(5 * time.Millisecond)
	if got := pool.ceiling(); got != 100 {
		t.Errorf("released ceiling = %d, want 100", got)
	}
}

// TestPolicyFloorKeepsOneSlot: a tiny positive multiplier must not
// starve the queue entirely.
func TestPolicyFloorKeepsOneSlot(t *testing.T) {
	cfg := testConfig()
	m := newMetrics(cfg.SampleWindow)
	q := newAdmissionQueue(0)
	pool := newWorkerPool(cfg, q, m, nil, PolicyFunc(func(ResourceState, float64) float64 {
		return 0.01
	}))

	m.setLevel(LevelNormal) // ceiling 5: 5 × 0.01 rounds to zero
	if got := pool.ceiling(); got != 1 {
		t.Errorf("ceiling = %d, want the one-slot floor", got)
	}

	zero := newWorkerPool(cfg, q, m, nil, PolicyFunc(func(ResourceState, float64) float64 {
		return 0
	}))
	if got := zero.ceiling(); got != 0 {
		t.Errorf("a zero multiplier must close admission entirely, got %d", got)
	}
}
