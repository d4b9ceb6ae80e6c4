//go:build !(js && wasm)

package platform

import "github.com/mochi-browser/taskbridge/core"

const capability = core.CapabilityThreaded

// DefaultHost returns a host for running the cooperative model natively.
// The caller owns it and must Stop it.
func DefaultHost() core.Host {
	return core.NewLoopHost()
}
