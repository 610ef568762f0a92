package core

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// LocalTrack is a captured local media track the session owns exclusively.
// SetEnabled mutes/unmutes without renegotiating the connection.
type LocalTrack interface {
	Kind() webrtc.RTPCodecType
	Enabled() bool
	SetEnabled(bool)
	// Stop releases the underlying capture device resource. Called once,
	// from MediaSession.Close.
	Stop()
}

// RemoteTrack is a read-only view of a track arriving from the peer.
// *webrtc.TrackRemote satisfies it directly.
type RemoteTrack interface {
	ID() string
	Kind() webrtc.RTPCodecType
}

// MediaSession wraps a peer-to-peer media transport. Exactly one exists per
// call session; it is created at session start and destroyed once at teardown.
type MediaSession interface {
	// Start acquires local media and installs internal transport callbacks.
	// Fails with ErrPermissionDenied or ErrDeviceUnavailable; no signaling
	// may happen after a failed Start.
	Start(ctx context.Context) error
	// LocalTracks returns the captured tracks. Valid after Start.
	LocalTracks() []LocalTrack
	// CreateOffer generates the local description. Caller role only, once.
	CreateOffer(ctx context.Context) (webrtc.SessionDescription, error)
	// AcceptOffer sets the remote description and generates the matching
	// answer. Callee role only, once, after local tracks are attached.
	AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	// ApplyAnswer sets the remote description on the caller side. Returns
	// ErrNegotiationState for stale or duplicate answers.
	ApplyAnswer(ctx context.Context, answer webrtc.SessionDescription) error
	// AddRemoteCandidate feeds a trickled ICE candidate into the transport.
	// Candidates arriving before the remote description are buffered and
	// flushed once it is set.
	AddRemoteCandidate(webrtc.ICECandidateInit) error
	// OnLocalCandidate sets a callback for newly gathered local candidates.
	OnLocalCandidate(func(webrtc.ICECandidateInit))
	// OnRemoteTrack sets a callback invoked as remote media arrives. streamID
	// may be empty when the transport delivers a bare track.
	OnRemoteTrack(func(track RemoteTrack, streamID string))
	// OnStateChange sets a callback for transport connection state changes.
	OnStateChange(func(webrtc.PeerConnectionState))
	// Close stops local tracks, closes the transport and releases listeners.
	// Idempotent.
	Close()
}
