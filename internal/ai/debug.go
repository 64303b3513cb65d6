package ai

import "sync/atomic"

// decisionLog is off unless main runs at debug level. Policies run once per
// AI turn across every simulated encounter, so their logs stay behind it.
var decisionLog atomic.Bool

// EnableDebugLogging turns policy decision logs and encounter narration on
// or off.
func EnableDebugLogging(enabled bool) {
	decisionLog.Store(enabled)
}

// IsDebugEnabled reports whether policies log why they picked an option and
// whether the simulator attaches its narration listener.
func IsDebugEnabled() bool {
	return decisionLog.Load()
}
