package domain

// CallRole is fixed at session creation and never changes.
type CallRole string

const (
	RoleCaller CallRole = "caller"
	RoleCallee CallRole = "callee"
)

// CallStatus is the lifecycle state of a call session. Transitions are
// one-directional; StatusEnded is absorbing.
type CallStatus string

const (
	StatusIdle       CallStatus = "idle"
	StatusCalling    CallStatus = "calling"    // caller, waiting for answer
	StatusConnecting CallStatus = "connecting" // callee, answering
	StatusConnected  CallStatus = "connected"
	StatusEnded      CallStatus = "ended"
)

// Active reports whether the session still owns live resources.
func (s CallStatus) Active() bool {
	return s == StatusCalling || s == StatusConnecting || s == StatusConnected
}
