package surgegate

import "fmt"

// ScalingDecision is the advisor's recommended action.
type ScalingDecision string

const (
	ScaleDown ScalingDecision = "SCALE_DOWN" // pool idle above normal level
	Maintain  ScalingDecision = "MAINTAIN"   // level matches offered load
	ScaleUp   ScalingDecision = "SCALE_UP"   // backlog exceeds the ceiling and resources allow
	ShedLoad  ScalingDecision = "SHED_LOAD"  // resources saturated, adding capacity would hurt
)

// Recommendation explains a scaling decision. Advisory only: nothing in
// the coordinator acts on it automatically.
type Recommendation struct {
	Decision    ScalingDecision
	TargetLevel SurgeLevel
	Reason      string
	RiskLevel   string // LOW, MEDIUM, HIGH, CRITICAL
}

// Recommend derives a scaling recommendation from a metrics snapshot.
//
// The decision tree deliberately checks resource pressure before backlog:
// scaling up a pool on a saturated host adds coordination overhead on top
// of the pressure that caused the backlog in the first place. Under
// emergency pressure the right move is shedding load, not adding workers.
func Recommend(s MetricsSnapshot) Recommendation {
	ceiling := ConfigFor(s.Level).MaxConcurrent

	if s.ResourceState >= ResourceEmergency {
		return Recommendation{
			Decision:    ShedLoad,
			TargetLevel: s.Level,
			Reason: fmt.Sprintf(
				"resource utilization %.0f%% is past the emergency boundary; adding workers would deepen saturation",
				s.ResourceUtilization*100),
			RiskLevel: "CRITICAL",
		}
	}

	if s.QueueDepth > ceiling {
		if s.ResourceState >= ResourceCritical {
			return Recommendation{
				Decision:    ShedLoad,
				TargetLevel: s.Level,
				Reason: fmt.Sprintf(
					"backlog %d exceeds ceiling %d but resources are %s; shed before scaling",
					s.QueueDepth, ceiling, s.ResourceState),
				RiskLevel: "HIGH",
			}
		}
		target := s.Level
		if target < LevelEmergency {
			target++
		}
		return Recommendation{
			Decision:    ScaleUp,
			TargetLevel: target,
			Reason: fmt.Sprintf(
				"backlog %d exceeds ceiling %d with headroom (resources %s, stability %.2f)",
				s.QueueDepth, ceiling, s.ResourceState, s.CadenceStability),
			RiskLevel: riskFromStability(s.CadenceStability),
		}
	}

	if s.ActiveCount == 0 && s.QueueDepth == 0 && s.Level > LevelNormal {
		return Recommendation{
			Decision:    ScaleDown,
			TargetLevel: LevelNormal,
			Reason:      fmt.Sprintf("pool idle at %s level; holding %d reserved workers", s.Level, ConfigFor(s.Level).PoolSize),
			RiskLevel:   "LOW",
		}
	}

	return Recommendation{
		Decision:    Maintain,
		TargetLevel: s.Level,
		Reason: fmt.Sprintf("active %d of %d, backlog %d; level matches offered load",
			s.ActiveCount, ceiling, s.QueueDepth),
		RiskLevel: riskFromStability(s.CadenceStability),
	}
}

func riskFromStability(stability float64) string {
	switch {
	case stability >= 0.8:
		return "LOW"
	case stability >= 0.5:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}
