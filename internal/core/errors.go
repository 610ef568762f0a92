package core

import "errors"

var (
	// ErrPermissionDenied means the OS or user refused camera/microphone access.
	ErrPermissionDenied = errors.New("media permission denied")
	// ErrDeviceUnavailable means no usable capture device could be opened.
	ErrDeviceUnavailable = errors.New("media device unavailable")
	// ErrNegotiationState means an answer or description arrived while the
	// transport was not in the expected negotiation state (e.g. a duplicate
	// answer). Callers recover by ignoring the redundant message.
	ErrNegotiationState = errors.New("unexpected negotiation state")
	// ErrSessionActive means a start was attempted on a session that already ran.
	ErrSessionActive = errors.New("session already started")
)
