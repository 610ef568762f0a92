// Package rtc implements core.MediaSession on top of pion/webrtc with local
// capture via pion/mediadevices.
package rtc

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/core"
)

type Config struct {
	// ICEServers is the STUN/TURN URL list injected at construction. A single
	// public STUN server is enough for the reference behavior.
	ICEServers []string
}

func DefaultConfig() Config {
	return Config{
		ICEServers: []string{"stun:stun.l.google.com:19302"},
	}
}

// Session wraps one PeerConnection plus the locally captured tracks.
type Session struct {
	cfg Config

	mu        sync.Mutex
	pc        *webrtc.PeerConnection
	tracks    []*localTrack
	pending   []webrtc.ICECandidateInit
	remoteSet bool
	closed    bool

	onICE   func(webrtc.ICECandidateInit)
	onTrack func(core.RemoteTrack, string)
	onState func(webrtc.PeerConnectionState)
}

func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg}
}

func (s *Session) OnLocalCandidate(fn func(webrtc.ICECandidateInit)) { s.onICE = fn }

func (s *Session) OnRemoteTrack(fn func(core.RemoteTrack, string)) { s.onTrack = fn }

func (s *Session) OnStateChange(fn func(webrtc.PeerConnectionState)) { s.onState = fn }

// Start builds the PeerConnection, captures camera+microphone and attaches
// the local tracks. Callbacks set before Start are installed here.
func (s *Session) Start(ctx context.Context) error {
	pc, tracks, err := initMedia(s.cfg)
	if err != nil {
		return err
	}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand != nil && s.onICE != nil {
			s.onICE(cand.ToJSON())
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("remote track")
		go drain(track)
		if s.onTrack != nil {
			s.onTrack(track, track.StreamID())
		}
	})

	pc.OnConnectionStateChange(func(st webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer_connection_state", st.String()).Msg("peer state")
		if s.onState != nil {
			s.onState(st)
		}
	})

	s.mu.Lock()
	s.pc = pc
	s.tracks = tracks
	s.mu.Unlock()
	return nil
}

func (s *Session) LocalTracks() []core.LocalTrack {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.LocalTrack, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t
	}
	return out
}

func (s *Session) CreateOffer(ctx context.Context) (webrtc.SessionDescription, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	// Trickle ICE: candidates stream out via OnLocalCandidate, no waiting for
	// gathering to complete.
	return offer, nil
}

func (s *Session) AcceptOffer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	s.flushPending()
	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return answer, nil
}

func (s *Session) ApplyAnswer(ctx context.Context, answer webrtc.SessionDescription) error {
	if s.pc.SignalingState() != webrtc.SignalingStateHaveLocalOffer {
		return core.ErrNegotiationState
	}
	if err := s.pc.SetRemoteDescription(answer); err != nil {
		return err
	}
	s.flushPending()
	return nil
}

// AddRemoteCandidate buffers candidates that race the remote description and
// flushes them once it is set.
func (s *Session) AddRemoteCandidate(cand webrtc.ICECandidateInit) error {
	s.mu.Lock()
	if !s.remoteSet {
		s.pending = append(s.pending, cand)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.pc.AddICECandidate(cand)
}

func (s *Session) flushPending() {
	s.mu.Lock()
	s.remoteSet = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, cand := range pending {
		if err := s.pc.AddICECandidate(cand); err != nil {
			log.Debug().Err(err).Str("module", "rtc").Msg("buffered candidate rejected")
		}
	}
}

// Close stops local tracks and closes the transport. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pc := s.pc
	tracks := s.tracks
	s.mu.Unlock()

	for _, t := range tracks {
		t.Stop()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("close error")
		} else {
			log.Info().Str("module", "rtc").Msg("closed")
		}
	}
}

// drain keeps the remote track's RTP flowing so the receiver does not stall;
// the reference client has no renderer for it.
func drain(track *webrtc.TrackRemote) {
	buf := make([]byte, 1500)
	for {
		if _, _, err := track.Read(buf); err != nil {
			return
		}
	}
}
