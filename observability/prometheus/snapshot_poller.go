package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/mochi-browser/taskbridge/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// BridgeSnapshotProvider provides current bridge stats snapshots.
type BridgeSnapshotProvider interface {
	Stats() core.BridgeStats
}

// BackendSnapshotProvider provides current backend stats snapshots.
type BackendSnapshotProvider interface {
	Stats() core.BackendStats
}

// SnapshotPoller periodically exports bridge/backend Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	bridgesMu sync.RWMutex
	bridges   map[string]BridgeSnapshotProvider

	backendsMu sync.RWMutex
	backends   map[string]BackendSnapshotProvider

	bridgePending   *prom.GaugeVec
	bridgeBuffered  *prom.GaugeVec
	bridgeDelivered *prom.GaugeVec
	bridgeRejected  *prom.GaugeVec
	bridgeClosed    *prom.GaugeVec
	redrawFired     *prom.GaugeVec

	backendQueued  *prom.GaugeVec
	backendActive  *prom.GaugeVec
	backendTurns   *prom.GaugeVec
	backendWorkers *prom.GaugeVec
	backendRunning *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	gauge := func(name, help string, labels ...string) *prom.GaugeVec {
		return prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "taskbridge",
			Name:      name,
			Help:      help,
		}, labels)
	}

	p := &SnapshotPoller{
		interval: interval,
		bridges:  make(map[string]BridgeSnapshotProvider),
		backends: make(map[string]BackendSnapshotProvider),

		bridgePending:   gauge("bridge_pending", "Number of pending tasks per bridge.", "bridge", "backend"),
		bridgeBuffered:  gauge("bridge_buffered", "Outcomes waiting in the outcome channel per bridge.", "bridge", "backend"),
		bridgeDelivered: gauge("bridge_delivered_total", "Bridge delivered outcome count snapshot.", "bridge", "backend"),
		bridgeRejected:  gauge("bridge_rejected_total", "Bridge rejected spawn count snapshot.", "bridge", "backend"),
		bridgeClosed:    gauge("bridge_closed", "Bridge closed state (1=closed, 0=open).", "bridge", "backend"),
		redrawFired:     gauge("bridge_redraw_fired_total", "Redraw primitive invocations snapshot.", "bridge", "backend"),

		backendQueued:  gauge("backend_queued", "Jobs waiting to start per backend.", "backend", "capability"),
		backendActive:  gauge("backend_active", "Jobs started but not finished per backend.", "backend", "capability"),
		backendTurns:   gauge("backend_turns_total", "Host turns run per cooperative backend.", "backend", "capability"),
		backendWorkers: gauge("backend_workers", "Worker count per backend.", "backend", "capability"),
		backendRunning: gauge("backend_running", "Backend running state (1=running, 0=stopped).", "backend", "capability"),
	}

	for _, vec := range []**prom.GaugeVec{
		&p.bridgePending, &p.bridgeBuffered, &p.bridgeDelivered, &p.bridgeRejected, &p.bridgeClosed, &p.redrawFired,
		&p.backendQueued, &p.backendActive, &p.backendTurns, &p.backendWorkers, &p.backendRunning,
	} {
		registered, err := registerCollector(reg, *vec)
		if err != nil {
			return nil, err
		}
		*vec = registered
	}

	return p, nil
}

// AddBridge adds or replaces a bridge snapshot provider by name.
func (p *SnapshotPoller) AddBridge(name string, provider BridgeSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "bridge")
	p.bridgesMu.Lock()
	p.bridges[name] = provider
	p.bridgesMu.Unlock()
}

// AddBackend adds or replaces a backend snapshot provider by name.
func (p *SnapshotPoller) AddBackend(name string, provider BackendSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "backend")
	p.backendsMu.Lock()
	p.backends[name] = provider
	p.backendsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

func (p *SnapshotPoller) collectOnce() {
	p.bridgesMu.RLock()
	for name, provider := range p.bridges {
		stats := provider.Stats()
		backendLabel := normalizeLabel(stats.Backend, "unknown")
		p.bridgePending.WithLabelValues(name, backendLabel).Set(float64(stats.Pending))
		p.bridgeBuffered.WithLabelValues(name, backendLabel).Set(float64(stats.Buffered))
		p.bridgeDelivered.WithLabelValues(name, backendLabel).Set(float64(stats.Delivered))
		p.bridgeRejected.WithLabelValues(name, backendLabel).Set(float64(stats.Rejected))
		p.redrawFired.WithLabelValues(name, backendLabel).Set(float64(stats.Redraw.Fired))
		p.bridgeClosed.WithLabelValues(name, backendLabel).Set(boolGauge(stats.Closed))
	}
	p.bridgesMu.RUnlock()

	p.backendsMu.RLock()
	for name, provider := range p.backends {
		stats := provider.Stats()
		capability := stats.Capability.String()
		p.backendQueued.WithLabelValues(name, capability).Set(float64(stats.Queued))
		p.backendActive.WithLabelValues(name, capability).Set(float64(stats.Active))
		p.backendTurns.WithLabelValues(name, capability).Set(float64(stats.Turns))
		p.backendWorkers.WithLabelValues(name, capability).Set(float64(stats.Workers))
		p.backendRunning.WithLabelValues(name, capability).Set(boolGauge(stats.Running))
	}
	p.backendsMu.RUnlock()
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
