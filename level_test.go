package surgegate

import "testing"

// TestClassifyThresholds verifies the fixed classification table at and
// around every boundary.
func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		count int
		want  SurgeLevel
	}{
		{0, LevelNormal},
		{1, LevelNormal},
		{5, LevelNormal},
		{6, LevelElevated},
		{15, LevelElevated},
		{16, LevelHigh},
		{30, LevelHigh},
		{31, LevelCritical},
		{49, LevelCritical},
		{50, LevelEmergency},
		{51, LevelEmergency},
		{200, LevelEmergency},
	}

	for _, c := range cases {
		if got := Classify(c.count); got != c.want {
			t.Errorf("Classify(%d) = %s, want %s", c.count, got, c.want)
		}
	}
	t.Logf("✓ classification thresholds match the fixed table")
}

func TestClassifyMonotonic(t *testing.T) {
	AssertClassificationMonotonic(t, []int{0, 1, 5, 6, 15, 16, 30, 31, 50, 51, 200})
}

// TestPoolConfigTable verifies the static level → pool mapping.
func TestPoolConfigTable(t *testing.T) {
	cases := []struct {
		level         SurgeLevel
		maxConcurrent int
		poolSize      int
	}{
		{LevelNormal, 5, 2},
		{LevelElevated, 15, 4},
		{LevelHigh, 30, 8},
		{LevelCritical, 50, 16},
		{LevelEmergency, 100, 32},
	}

	for _, c := range cases {
		cfg := ConfigFor(c.level)
		if cfg.MaxConcurrent != c.maxConcurrent || cfg.PoolSize != c.poolSize {
			t.Errorf("ConfigFor(%s) = {%d,%d}, want {%d,%d}",
				c.level, cfg.MaxConcurrent, cfg.PoolSize, c.maxConcurrent, c.poolSize)
		}
	}

	// Out-of-range levels fall back to normal.
	if cfg := ConfigFor(SurgeLevel(99)); cfg != poolConfigs[LevelNormal] {
		t.Errorf("out-of-range level should fall back to normal, got %+v", cfg)
	}
	t.Logf("✓ pool table: normal 5/2 through emergency 100/32")
}

// TestClassifyResource verifies the utilization → state boundaries,
// including the exact boundary values which belong to the lower state.
func TestClassifyResource(t *testing.T) {
	cases := []struct {
		utilization float64
		want        ResourceState
	}{
		{0.0, ResourceAbundant},
		{0.49, ResourceAbundant},
		{0.50, ResourceAbundant},
		{0.51, ResourceAvailable},
		{0.70, ResourceAvailable},
		{0.71, ResourceConstrained},
		{0.85, ResourceConstrained},
		{0.86, ResourceCritical},
		{0.95, ResourceCritical},
		{0.96, ResourceEmergency},
		{1.0, ResourceEmergency},
	}

	for _, c := range cases {
		if got := ClassifyResource(c.utilization); got != c.want {
			t.Errorf("ClassifyResource(%.2f) = %s, want %s", c.utilization, got, c.want)
		}
	}
	t.Logf("✓ resource state thresholds match the fixed table")
}

func TestLevelStrings(t *testing.T) {
	if LevelNormal.String() != "normal" || LevelEmergency.String() != "emergency" {
		t.Errorf("unexpected level names: %s, %s", LevelNormal, LevelEmergency)
	}
	if ResourceAbundant.String() != "abundant" || ResourceEmergency.String() != "emergency" {
		t.Errorf("unexpected resource state names: %s, %s", ResourceAbundant, ResourceEmergency)
	}
}
