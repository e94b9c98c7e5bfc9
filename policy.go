package surgegate

import (
	"sync"
	"time"
)

// AdmissionPolicy closes the feedback loop between the advisory monitors
// and the admission ceiling. The returned multiplier in [0,1] scales the
// current level's MaxConcurrent before each admission window.
//
// The default coordinator runs without a policy: resource pressure and
// cadence degradation are logged but never throttle admission. Installing
// a policy is the explicit opt-in to closed-loop backpressure.
type AdmissionPolicy interface {
	AdmissionMultiplier(state ResourceState, stability float64) float64
}

// PolicyFunc adapts a plain function to the AdmissionPolicy interface.
type PolicyFunc func(state ResourceState, stability float64) float64

func (f PolicyFunc) AdmissionMultiplier(state ResourceState, stability float64) float64 {
	return f(state, stability)
}

// GovernorPolicy is a backpressure policy with hysteresis.
//
// Steady-state multipliers by resource state:
//
//	abundant/available: 1.00 (full ceiling)
//	constrained:        0.80
//	critical:           0.50
//	emergency:          0.25
//
// A stability score below 0.5 halves the multiplier again: a pool that is
// both resource-starved and missing its cadence gets throttled hardest.
//
// Hysteresis prevents bang-bang oscillation around the critical boundary.
// Once the policy throttles to 0.5 or below it stays throttled until both
// a minimum hold time has elapsed and pressure has dropped back to the
// available state, not merely below critical.
type GovernorPolicy struct {
	// MinHold is how long a throttle episode lasts at minimum.
	// Zero means DefaultMinHold.
	MinHold time.Duration

	mu        sync.Mutex
	throttled bool
	since     time.Time

	throttleEvents int
}

// DefaultMinHold is the minimum throttle episode duration.
const DefaultMinHold = 5 * time.Second

// AdmissionMultiplier implements AdmissionPolicy.
func (g *GovernorPolicy) AdmissionMultiplier(state ResourceState, stability float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	minHold := g.MinHold
	if minHold <= 0 {
		minHold = DefaultMinHold
	}

	mult := 1.0
	switch state {
	case ResourceConstrained:
		mult = 0.8
	case ResourceCritical:
		mult = 0.5
	case ResourceEmergency:
		mult = 0.25
	}
	if stability < 0.5 {
		mult *= 0.5
	}

	now := time.Now()
	if mult <= 0.5 {
		if !g.throttled {
			g.throttled = true
			g.since = now
			g.throttleEvents++
		}
		return mult
	}

	if g.throttled {
		// Exit only after the hold expires and pressure is genuinely
		// low again. Until then, hold at the throttle floor.
		if now.Sub(g.since) < minHold || state > ResourceAvailable {
			return 0.5
		}
		g.throttled = false
	}
	return mult
}

// ThrottleEvents returns how many throttle episodes the policy entered.
func (g *GovernorPolicy) ThrottleEvents() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.throttleEvents
}
