package prometheus

import (
	"context"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/surgegate"
)

func TestExporterObserve(t *testing.T) {
	reg := prom.NewRegistry()
	e, err := NewMetricsExporter("", reg, ExporterOptions{})
	require.NoError(t, err)

	e.Observe(surgegate.MetricsSnapshot{
		Level:               surgegate.LevelCritical,
		ActiveCount:         12,
		QueueDepth:          34,
		ResourceUtilization: 0.77,
		CadenceStability:    0.9,
		PolicyViolations:    3,
	})

	assert.Equal(t, float64(surgegate.LevelCritical), testutil.ToFloat64(e.surgeLevel))
	assert.Equal(t, 12.0, testutil.ToFloat64(e.activeRequests))
	assert.Equal(t, 34.0, testutil.ToFloat64(e.queueDepth))
	assert.Equal(t, 0.77, testutil.ToFloat64(e.resourceUtilization))
	assert.Equal(t, 0.9, testutil.ToFloat64(e.cadenceStability))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.policyViolations))
}

func TestExporterCompletionHook(t *testing.T) {
	reg := prom.NewRegistry()
	e, err := NewMetricsExporter("test", reg, ExporterOptions{})
	require.NoError(t, err)

	hook := e.CompletionHook()
	hook(surgegate.CompletionEvent{ID: "a", Success: true, Duration: 5 * time.Millisecond})
	hook(surgegate.CompletionEvent{ID: "b", Success: true, Duration: 7 * time.Millisecond})
	hook(surgegate.CompletionEvent{ID: "c", Success: false, Duration: time.Millisecond})

	assert.Equal(t, 2.0, testutil.ToFloat64(e.completedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.failedTotal))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var observed uint64
	for _, mf := range mfs {
		if mf.GetName() == "test_processing_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(3), observed)
}

// TestExporterReregister: constructing twice against one registry hands
// back the existing collectors instead of failing.
func TestExporterReregister(t *testing.T) {
	reg := prom.NewRegistry()
	first, err := NewMetricsExporter("surgegate", reg, ExporterOptions{})
	require.NoError(t, err)

	second, err := NewMetricsExporter("surgegate", reg, ExporterOptions{})
	require.NoError(t, err)

	first.completedTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(second.completedTotal),
		"both exporters must share the registered counter")
}

type staticProvider struct {
	snap surgegate.MetricsSnapshot
}

func (s staticProvider) Status() surgegate.MetricsSnapshot { return s.snap }

func TestSnapshotPoller(t *testing.T) {
	reg := prom.NewRegistry()
	e, err := NewMetricsExporter("poll", reg, ExporterOptions{})
	require.NoError(t, err)

	p := NewSnapshotPoller(staticProvider{surgegate.MetricsSnapshot{QueueDepth: 42}}, e, 5*time.Millisecond)
	p.Start(context.Background())
	p.Start(context.Background()) // second Start is a no-op

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(e.queueDepth) == 42.0
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	p.Stop() // idempotent
}
