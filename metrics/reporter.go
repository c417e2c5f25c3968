// reporter.go provides periodic export of registry snapshots to
// pluggable backends (e.g. a log file or a push gateway).
package metrics

import (
	"sync"
	"time"
)

// ReportBackend is the interface that export backends must implement.
// Report is called periodically with a registry snapshot; values are
// int64 for counters and gauges and map[string]interface{} for
// histograms, as produced by Registry.Snapshot.
type ReportBackend interface {
	Report(snapshot map[string]interface{}) error
}

// Reporter periodically snapshots a Registry and pushes the values to
// one or more registered backends.
type Reporter struct {
	mu       sync.RWMutex
	registry *Registry
	interval time.Duration
	backends map[string]ReportBackend

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewReporter creates a reporter that exports snapshots of registry
// every interval. A nil registry means DefaultRegistry.
func NewReporter(registry *Registry, interval time.Duration) *Reporter {
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Reporter{
		registry: registry,
		interval: interval,
		backends: make(map[string]ReportBackend),
	}
}

// RegisterBackend adds a named export backend. If a backend with the same
// name already exists it is replaced.
func (r *Reporter) RegisterBackend(name string, backend ReportBackend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[name] = backend
}

// UnregisterBackend removes a previously registered backend by name.
func (r *Reporter) UnregisterBackend(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, name)
}

// Start begins periodic reporting. It is safe to call Start on an already
// running reporter (it is a no-op).
func (r *Reporter) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.loop()
}

// Stop halts periodic reporting and blocks until the reporting goroutine
// exits. Safe to call on a stopped reporter (no-op).
func (r *Reporter) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	<-r.doneCh
}

// Running returns true if the reporter is actively exporting.
func (r *Reporter) Running() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// ReportOnce takes a registry snapshot and sends it to all backends.
// Errors from individual backends do not stop delivery to the rest;
// the first error is returned.
func (r *Reporter) ReportOnce() error {
	snap := r.registry.Snapshot()

	r.mu.RLock()
	backends := make([]ReportBackend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.RUnlock()

	var first error
	for _, b := range backends {
		if err := b.Report(snap); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// loop is the main export goroutine. It ticks at the configured interval
// and calls every registered backend with the current snapshot.
func (r *Reporter) loop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			_ = r.ReportOnce()
		}
	}
}
