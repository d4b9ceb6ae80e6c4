//go:build js && wasm

package platform

import "github.com/mochi-browser/taskbridge/core"

const capability = core.CapabilityCooperative

// DefaultHost returns the browser event loop host.
func DefaultHost() core.Host {
	return core.NewJSHost()
}
