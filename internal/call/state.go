package call

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
)

// Role returns the fixed role of the session, empty before start.
func (s *Session) Role() domain.CallRole {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

func (s *Session) Status() domain.CallStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Duration returns whole seconds since the session connected. It freezes at
// teardown.
func (s *Session) Duration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// StatusText is the human-readable line the call UI renders. The caller side
// reads "Connecting…" until the offer is actually out; nothing is ringing on
// the peer before that.
func (s *Session) StatusText() string {
	s.mu.Lock()
	status, d, offerSent := s.status, s.duration, s.offerSent
	s.mu.Unlock()

	switch status {
	case domain.StatusCalling:
		if !offerSent {
			return "Connecting…"
		}
		return "Ringing…"
	case domain.StatusConnected:
		return fmt.Sprintf("%02d:%02d", d/60, d%60)
	case domain.StatusEnded:
		return "Call ended"
	default:
		return "Connecting…"
	}
}

// LocalTracks exposes the local capture tracks for rendering, nil until media
// is acquired.
func (s *Session) LocalTracks() []core.LocalTrack {
	media := s.currentMedia()
	if media == nil {
		return nil
	}
	return media.LocalTracks()
}

// RemoteStream returns the remote media surface, nil until tracks arrive.
func (s *Session) RemoteStream() *core.RemoteStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

func (s *Session) MicEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.micOn
}

func (s *Session) CamEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camOn
}

// ToggleMic flips local audio. Returns the new muted state (true = muted).
// Only local track enabled flags change; the connection is not renegotiated.
func (s *Session) ToggleMic() bool {
	return s.toggle(webrtc.RTPCodecTypeAudio)
}

// ToggleCam flips local video. Returns the new disabled state (true = off).
func (s *Session) ToggleCam() bool {
	return s.toggle(webrtc.RTPCodecTypeVideo)
}

func (s *Session) toggle(kind webrtc.RTPCodecType) bool {
	s.mu.Lock()
	var on bool
	switch kind {
	case webrtc.RTPCodecTypeAudio:
		s.micOn = !s.micOn
		on = s.micOn
	case webrtc.RTPCodecTypeVideo:
		s.camOn = !s.camOn
		on = s.camOn
	}
	media := s.media
	s.mu.Unlock()

	if media != nil {
		for _, t := range media.LocalTracks() {
			if t.Kind() == kind {
				t.SetEnabled(on)
			}
		}
	}
	log.Info().Str("module", "call").Str("kind", kind.String()).Bool("enabled", on).Msg("toggled local track")
	return !on
}
