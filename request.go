package surgegate

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Policy constraint keys checked by the request pipeline.
// A key that is absent from the constraint map is treated as satisfied.
const (
	ConstraintConsentVerified     = "consent_verified"
	ConstraintBoundariesRespected = "boundaries_respected"
	ConstraintIntegrationConsent  = "integration_consent"
)

// PolicyConstraints carries per-request admission and execution policy.
// Unknown keys are permitted and ignored by the built-in checks.
type PolicyConstraints map[string]bool

// Allows reports whether a constraint is satisfied.
// Missing keys default to true: policy is opt-out, not opt-in.
func (p PolicyConstraints) Allows(key string) bool {
	v, ok := p[key]
	if !ok {
		return true
	}
	return v
}

// Request is a single unit of admission-controlled work.
//
// A request is owned by the queue until admitted, then exclusively by its
// processing task. It is removed from all live sets on completion, failure,
// or drain eviction.
type Request struct {
	ID         string
	Priority   int     // 1..10, 10 highest; used only by the drain path
	Complexity float64 // relative processing weight, scales staged work

	Policy      PolicyConstraints
	SubmittedAt time.Time

	// EstimatedDuration is advisory. It is not enforced as a deadline:
	// an admitted request may run arbitrarily long.
	EstimatedDuration time.Duration
}

// NewRequest creates a request with a generated ID and the submission
// time set to now. Priority is clamped to [1,10]; a non-positive
// complexity becomes 1.0.
func NewRequest(priority int, complexity float64, policy PolicyConstraints) Request {
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	if complexity <= 0 {
		complexity = 1.0
	}
	return Request{
		ID:          uuid.NewString(),
		Priority:    priority,
		Complexity:  complexity,
		Policy:      policy,
		SubmittedAt: time.Now(),
	}
}

// MakeBatch builds n identical requests, a convenience for load drivers
// and tests. All requests carry the given priority, complexity and a
// fully-permissive policy unless one is supplied.
func MakeBatch(n, priority int, complexity float64, policy PolicyConstraints) []Request {
	reqs := make([]Request, 0, n)
	for i := 0; i < n; i++ {
		reqs = append(reqs, NewRequest(priority, complexity, policy))
	}
	return reqs
}

// PolicyViolationError reports a per-request policy failure. It aborts
// only the violating request; the pool and sibling requests are unaffected.
type PolicyViolationError struct {
	RequestID  string
	Constraint string
}

func (e *PolicyViolationError) Error() string {
	return fmt.Sprintf("policy violation: request %s failed constraint %q", e.RequestID, e.Constraint)
}

// CompletionEvent is delivered once per finished request to an optional
// completion hook, for both successes and failures.
type CompletionEvent struct {
	ID       string
	Success  bool
	Duration time.Duration
}
