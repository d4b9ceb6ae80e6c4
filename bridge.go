package taskbridge

import (
	"sync"

	"github.com/mochi-browser/taskbridge/core"
	"github.com/mochi-browser/taskbridge/internal/platform"
)

// Options selects and sizes the backend for NewBridge.
type Options struct {
	// Backend is "auto", "threaded" or "cooperative". Empty means auto.
	Backend string

	// Workers sizes the threaded backend. 0 uses platform.DefaultWorkers;
	// a negative value runs one goroutine per task.
	Workers int

	// Host drives the cooperative backend. Nil uses platform.DefaultHost,
	// which then lives for the rest of the process.
	Host Host

	// Config is passed to core.NewBridge; nil uses defaults.
	Config *BridgeConfig
}

// NewBridge detects or resolves the capability named in opts, builds the
// matching backend, and returns a started bridge.
func NewBridge(opts Options) (*Bridge, error) {
	capability, err := platform.Resolve(opts.Backend)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = platform.DefaultWorkers()
	}

	host := opts.Host
	if capability == core.CapabilityCooperative && host == nil {
		host = platform.DefaultHost()
	}

	backend, err := core.NewBackend(capability, workers, host)
	if err != nil {
		return nil, err
	}
	return core.NewBridge(backend, opts.Config), nil
}

// =============================================================================
// Global Bridge Helper (Singleton)
// =============================================================================

var (
	globalBridge *Bridge
	globalMu     sync.Mutex
)

// InitGlobalBridge creates the process-wide bridge. It is a no-op if the
// bridge already exists.
func InitGlobalBridge(opts Options) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalBridge != nil {
		return nil // Already initialized
	}

	b, err := NewBridge(opts)
	if err != nil {
		return err
	}
	globalBridge = b
	return nil
}

// GetGlobalBridge returns the global bridge instance.
// It panics if InitGlobalBridge has not been called.
func GetGlobalBridge() *Bridge {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalBridge == nil {
		panic("GlobalBridge not initialized. Call InitGlobalBridge() first.")
	}
	return globalBridge
}

// ShutdownGlobalBridge shuts the global bridge down and forgets it.
// Outcomes still in flight are dropped with it.
func ShutdownGlobalBridge() {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalBridge != nil {
		globalBridge.Shutdown()
		globalBridge = nil
	}
}
