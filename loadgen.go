package surgegate

import (
	"context"
	"fmt"
	"time"
)

// LoadProfile drives a coordinator through a ladder of batch sizes,
// measuring how admission behaves at each surge level. It is the
// measurement harness behind the examples and the scaling tests.
type LoadProfile struct {
	Sizes      []int         // batch sizes to submit, in order (default: 5, 15, 30, 50)
	Priority   int           // request priority (default 7)
	Complexity float64       // per-request complexity (default 1.2)
	Cooldown   time.Duration // pause between batches (default: one cadence window)
	Policy     PolicyConstraints
}

// DefaultLoadProfile mirrors the standard scenario ladder: one batch per
// surge level below emergency, then one past the emergency boundary.
func DefaultLoadProfile() LoadProfile {
	return LoadProfile{
		Sizes:      []int{5, 15, 30, 50},
		Priority:   7,
		Complexity: 1.2,
		Cooldown:   100 * time.Millisecond,
	}
}

// LoadResult pairs one submitted batch size with its outcome.
type LoadResult struct {
	Size   int
	Result Result
}

// RunLoad submits each configured batch in sequence and collects the
// results. It stops early if the coordinator refuses a batch (which only
// happens mid-drain) or the context is cancelled.
func RunLoad(ctx context.Context, c *Coordinator, profile LoadProfile) ([]LoadResult, error) {
	if len(profile.Sizes) == 0 {
		profile = DefaultLoadProfile()
	}
	if profile.Priority <= 0 {
		profile.Priority = 7
	}
	if profile.Complexity <= 0 {
		profile.Complexity = 1.2
	}
	if profile.Cooldown <= 0 {
		profile.Cooldown = 100 * time.Millisecond
	}

	results := make([]LoadResult, 0, len(profile.Sizes))
	for _, size := range profile.Sizes {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		batch := MakeBatch(size, profile.Priority, profile.Complexity, profile.Policy)
		res, err := c.SubmitBatch(ctx, batch)
		if err != nil {
			return results, fmt.Errorf("batch of %d: %w", size, err)
		}
		results = append(results, LoadResult{Size: size, Result: res})

		select {
		case <-ctx.Done():
			return results, ctx.Err()
		case <-time.After(profile.Cooldown):
		}
	}
	return results, nil
}
