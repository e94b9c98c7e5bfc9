package surgegate

import "fmt"

// SurgeLevel classifies offered load intensity from the size of an
// incoming batch. Levels are ordered: comparisons like l >= LevelCritical
// are meaningful.
type SurgeLevel int

const (
	LevelNormal    SurgeLevel = iota // 1-5 requests
	LevelElevated                    // 6-15 requests
	LevelHigh                        // 16-30 requests
	LevelCritical                    // 31-49 requests
	LevelEmergency                   // 50+ requests
)

var surgeLevelNames = [...]string{"normal", "elevated", "high", "critical", "emergency"}

func (l SurgeLevel) String() string {
	if l < LevelNormal || l > LevelEmergency {
		return fmt.Sprintf("SurgeLevel(%d)", int(l))
	}
	return surgeLevelNames[l]
}

// Classify maps a request count to its surge level.
//
// Pure and total over non-negative counts. The thresholds are fixed:
// a count of 50 or more is always an emergency, regardless of how the
// pool is currently configured.
func Classify(requestCount int) SurgeLevel {
	switch {
	case requestCount >= 50:
		return LevelEmergency
	case requestCount >= 31:
		return LevelCritical
	case requestCount >= 16:
		return LevelHigh
	case requestCount >= 6:
		return LevelElevated
	default:
		return LevelNormal
	}
}

// PoolConfig bounds the worker pool at a given surge level.
type PoolConfig struct {
	MaxConcurrent int // admission ceiling: in-flight requests never exceed this
	PoolSize      int // nominal worker allocation for capacity planning
}

// poolConfigs is the static level → pool table. Read-only after init;
// no locking required.
var poolConfigs = [...]PoolConfig{
	LevelNormal:    {MaxConcurrent: 5, PoolSize: 2},
	LevelElevated:  {MaxConcurrent: 15, PoolSize: 4},
	LevelHigh:      {MaxConcurrent: 30, PoolSize: 8},
	LevelCritical:  {MaxConcurrent: 50, PoolSize: 16},
	LevelEmergency: {MaxConcurrent: 100, PoolSize: 32},
}

// ConfigFor returns the pool configuration for a surge level.
// Out-of-range levels fall back to the normal configuration.
func ConfigFor(level SurgeLevel) PoolConfig {
	if level < LevelNormal || level > LevelEmergency {
		return poolConfigs[LevelNormal]
	}
	return poolConfigs[level]
}

// ResourceState classifies host resource pressure from a utilization
// fraction in [0,1]. Ordered like SurgeLevel.
type ResourceState int

const (
	ResourceAbundant    ResourceState = iota // < 50% utilization
	ResourceAvailable                        // 50-70%
	ResourceConstrained                      // 70-85%
	ResourceCritical                         // 85-95%
	ResourceEmergency                        // > 95%
)

var resourceStateNames = [...]string{"abundant", "available", "constrained", "critical", "emergency"}

func (s ResourceState) String() string {
	if s < ResourceAbundant || s > ResourceEmergency {
		return fmt.Sprintf("ResourceState(%d)", int(s))
	}
	return resourceStateNames[s]
}

// ClassifyResource maps a utilization fraction to a resource state.
// Values outside [0,1] are clamped before classification.
func ClassifyResource(utilization float64) ResourceState {
	switch {
	case utilization > 0.95:
		return ResourceEmergency
	case utilization > 0.85:
		return ResourceCritical
	case utilization > 0.70:
		return ResourceConstrained
	case utilization > 0.50:
		return ResourceAvailable
	default:
		return ResourceAbundant
	}
}
