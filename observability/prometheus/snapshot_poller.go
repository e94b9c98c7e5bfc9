package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/alexshd/surgegate"
)

// StatusProvider yields coordinator metrics snapshots.
// *surgegate.Coordinator satisfies it.
type StatusProvider interface {
	Status() surgegate.MetricsSnapshot
}

// SnapshotPoller periodically pulls Status() snapshots from a provider
// and publishes them through a MetricsExporter.
type SnapshotPoller struct {
	provider StatusProvider
	exporter *MetricsExporter
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a poller. A non-positive interval defaults
// to one second.
func NewSnapshotPoller(provider StatusProvider, exporter *MetricsExporter, interval time.Duration) *SnapshotPoller {
	if interval <= 0 {
		interval = time.Second
	}
	return &SnapshotPoller{
		provider: provider,
		exporter: exporter,
		interval: interval,
	}
}

// Start begins polling until Stop or context cancellation. Calling
// Start on a running poller is a no-op.
func (p *SnapshotPoller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true

	go p.loop(pollCtx)
}

// Stop halts polling and waits for the loop to exit.
func (p *SnapshotPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.exporter.Observe(p.provider.Status())
		}
	}
}
