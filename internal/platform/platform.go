// Package platform detects which execution substrate the process runs on and
// supplies the matching capability token and host to the bridge.
package platform

import (
	"runtime"

	"github.com/mochi-browser/taskbridge/core"
)

// Info describes the running platform.
type Info struct {
	GOOS       string
	GOARCH     string
	Capability core.Capability
	NumCPU     int
}

// Detect reports the capability of the current build target.
func Detect() Info {
	return Info{
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		Capability: capability,
		NumCPU:     runtime.NumCPU(),
	}
}

// Capability returns the capability token for the current build target.
func Capability() core.Capability {
	return capability
}

// Resolve turns a configured backend name into a capability. "auto" and ""
// select the build target's native capability.
func Resolve(name string) (core.Capability, error) {
	if name == "" || name == "auto" {
		return capability, nil
	}
	return core.ParseCapability(name)
}

// DefaultWorkers is the worker count used when none is configured.
func DefaultWorkers() int {
	if capability == core.CapabilityCooperative {
		return 1
	}
	return max(2, runtime.NumCPU())
}
