package surgegate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.AdmissionTick != 10*time.Millisecond {
		t.Errorf("admission tick = %v, want 10ms", cfg.AdmissionTick)
	}
	if cfg.MonitorInterval != 100*time.Millisecond {
		t.Errorf("monitor interval = %v, want 100ms", cfg.MonitorInterval)
	}
	if cfg.BaseTimeout != 5*time.Second || cfg.PerRequestTimeout != 100*time.Millisecond {
		t.Errorf("timeout profile = %v + %v, want 5s + 100ms per request",
			cfg.BaseTimeout, cfg.PerRequestTimeout)
	}
	if cfg.SafeMinimumRate != 60 || cfg.TargetRate != 90 {
		t.Errorf("cadence thresholds = %v/%v, want 60/90", cfg.SafeMinimumRate, cfg.TargetRate)
	}
	if cfg.DrainPriorityFloor != 8 {
		t.Errorf("drain priority floor = %d, want 8", cfg.DrainPriorityFloor)
	}
	if cfg.MaxQueueDepth != 0 {
		t.Errorf("queue must default to unbounded, got depth %d", cfg.MaxQueueDepth)
	}
}

// TestWithDefaults: a sparse config keeps its explicit fields and fills
// the rest.
func TestWithDefaults(t *testing.T) {
	cfg := Config{AdmissionTick: time.Second, DrainPriorityFloor: 3}.withDefaults()

	if cfg.AdmissionTick != time.Second {
		t.Errorf("explicit admission tick overwritten: %v", cfg.AdmissionTick)
	}
	if cfg.DrainPriorityFloor != 3 {
		t.Errorf("explicit drain floor overwritten: %d", cfg.DrainPriorityFloor)
	}
	if cfg.BaseTimeout != 5*time.Second || cfg.SampleWindow != 100 {
		t.Errorf("zero fields not defaulted: timeout=%v window=%d", cfg.BaseTimeout, cfg.SampleWindow)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "surgegate.yaml")
	body := []byte("admission_tick: 25ms\ndrain_priority_floor: 6\nmax_queue_depth: 500\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AdmissionTick != 25*time.Millisecond {
		t.Errorf("admission tick = %v, want 25ms", cfg.AdmissionTick)
	}
	if cfg.DrainPriorityFloor != 6 {
		t.Errorf("drain floor = %d, want 6", cfg.DrainPriorityFloor)
	}
	if cfg.MaxQueueDepth != 500 {
		t.Errorf("max queue depth = %d, want 500", cfg.MaxQueueDepth)
	}
	if cfg.TargetRate != 90 {
		t.Errorf("unset fields must keep defaults, target rate = %v", cfg.TargetRate)
	}
	t.Logf("✓ file values layered over defaults")
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("SURGEGATE_STABLE_THRESHOLD", "0.6")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.StableThreshold != 0.6 {
		t.Errorf("stable threshold = %v, want 0.6 from environment", cfg.StableThreshold)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
