// Package call implements the one-to-one call session state machine: role
// selection, the offer/answer handshake, ICE relay, connection-state
// reactions and the single teardown path.
package call

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
	"github.com/univibe/vibecall/internal/signal"
)

// Config carries the injected collaborators of a session. Signaler and
// NewMedia are required; the session owns the MediaSession it creates and
// only borrows the Signaler connection.
type Config struct {
	Self    domain.UserID
	Peer    domain.UserID
	Profile domain.ProfileSummary

	Signaler core.Signaler
	NewMedia func() (core.MediaSession, error)

	// OnEnded fires exactly once after teardown completes. The UI layer uses
	// it to navigate away.
	OnEnded func()

	// TickInterval overrides the duration counter period. Zero means one
	// second.
	TickInterval time.Duration
}

// Session is a single call between Self and Peer. Create one per call;
// a session cannot be restarted after it ends.
type Session struct {
	self    domain.UserID
	peer    domain.UserID
	profile domain.ProfileSummary

	signaler core.Signaler
	newMedia func() (core.MediaSession, error)
	onEnded  func()
	tick     time.Duration

	mu         sync.Mutex
	role       domain.CallRole
	status     domain.CallStatus
	media      core.MediaSession
	stopListen func()
	remote     *core.RemoteStream
	micOn      bool
	camOn      bool
	duration   int
	tickStop   chan struct{}
	offerSent  bool
	ended      bool
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Signaler == nil {
		return nil, fmt.Errorf("call: nil signaler")
	}
	if cfg.NewMedia == nil {
		return nil, fmt.Errorf("call: nil media factory")
	}
	if cfg.Self == "" || cfg.Peer == "" {
		return nil, fmt.Errorf("call: self and peer user IDs required")
	}
	tick := cfg.TickInterval
	if tick == 0 {
		tick = time.Second
	}
	return &Session{
		self:     cfg.Self,
		peer:     cfg.Peer,
		profile:  cfg.Profile,
		signaler: cfg.Signaler,
		newMedia: cfg.NewMedia,
		onEnded:  cfg.OnEnded,
		tick:     tick,
		status:   domain.StatusIdle,
		micOn:    true,
		camOn:    true,
	}, nil
}

// StartAsCaller acquires local media, opens the inbound signaling channel and
// sends the offer to the peer. A media acquisition failure aborts before any
// signaling happens.
func (s *Session) StartAsCaller(ctx context.Context) error {
	if err := s.begin(domain.RoleCaller, domain.StatusCalling); err != nil {
		return err
	}
	media, err := s.setupMedia(ctx)
	if err != nil {
		return err
	}
	if err := s.subscribe(ctx); err != nil {
		s.teardown(ctx, false)
		return err
	}

	offer, err := media.CreateOffer(ctx)
	if err != nil {
		s.teardown(ctx, false)
		return fmt.Errorf("create offer: %w", err)
	}
	s.send(ctx, signal.EventOffer, signal.OfferPayload{Offer: offer, CallerProfile: s.profile})
	s.mu.Lock()
	s.offerSent = true
	s.mu.Unlock()
	log.Info().Str("module", "call").Str("self", string(s.self)).Str("peer", string(s.peer)).Msg("offer sent, ringing")
	return nil
}

// StartAsCallee answers an offer that was delivered out-of-band. The inbound
// channel is opened before anything is sent back, so the caller's follow-up
// messages are not raced.
func (s *Session) StartAsCallee(ctx context.Context, offer webrtc.SessionDescription) error {
	if err := s.begin(domain.RoleCallee, domain.StatusConnecting); err != nil {
		return err
	}
	media, err := s.setupMedia(ctx)
	if err != nil {
		return err
	}
	if err := s.subscribe(ctx); err != nil {
		s.teardown(ctx, false)
		return err
	}

	answer, err := media.AcceptOffer(ctx, offer)
	if err != nil {
		s.teardown(ctx, false)
		return fmt.Errorf("accept offer: %w", err)
	}
	s.send(ctx, signal.EventAnswer, signal.AnswerPayload{Answer: answer})
	s.send(ctx, signal.EventCallAccepted, signal.ControlPayload{})
	// The callee considers itself connected as soon as acceptance is sent,
	// without waiting for transport confirmation. The caller side waits for
	// call-accepted or the transport's own connected event.
	s.markConnected()
	return nil
}

func (s *Session) begin(role domain.CallRole, status domain.CallStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.StatusIdle {
		return core.ErrSessionActive
	}
	s.role = role
	s.status = status
	return nil
}

// setupMedia creates the session's single MediaSession, acquires devices and
// installs the transport callbacks. On failure the session ends without ever
// having touched signaling.
func (s *Session) setupMedia(ctx context.Context) (core.MediaSession, error) {
	media, err := s.newMedia()
	if err != nil {
		s.mu.Lock()
		s.status = domain.StatusEnded
		s.ended = true
		s.mu.Unlock()
		return nil, fmt.Errorf("media session: %w", err)
	}

	media.OnLocalCandidate(func(c webrtc.ICECandidateInit) {
		// Relayed immediately, one message per candidate, to keep setup
		// latency low.
		s.send(ctx, signal.EventICECandidate, signal.CandidatePayload{Candidate: c})
	})
	media.OnRemoteTrack(s.addRemoteTrack)
	media.OnStateChange(func(st webrtc.PeerConnectionState) {
		switch st {
		case webrtc.PeerConnectionStateConnected:
			s.markConnected()
		case webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateFailed:
			log.Warn().Str("module", "call").Str("self", string(s.self)).Str("state", st.String()).Msg("transport lost")
			s.teardown(ctx, false)
		}
	})

	if err := media.Start(ctx); err != nil {
		media.Close()
		s.mu.Lock()
		s.status = domain.StatusEnded
		s.ended = true
		s.mu.Unlock()
		return nil, fmt.Errorf("acquire local media: %w", err)
	}

	s.mu.Lock()
	s.media = media
	s.mu.Unlock()
	return media, nil
}

func (s *Session) subscribe(ctx context.Context) error {
	handlers := map[string]core.EventHandler{
		signal.EventAnswer:       s.onAnswer(ctx),
		signal.EventCallAccepted: func(json.RawMessage) { s.markConnected() },
		signal.EventICECandidate: s.onCandidate,
		signal.EventCallDeclined: func(json.RawMessage) { s.onRemoteEnd(ctx) },
		signal.EventCallEnded:    func(json.RawMessage) { s.onRemoteEnd(ctx) },
	}
	stop, err := s.signaler.Listen(ctx, s.self, handlers)
	if err != nil {
		return fmt.Errorf("subscribe signaling: %w", err)
	}
	s.mu.Lock()
	s.stopListen = stop
	s.mu.Unlock()
	return nil
}

func (s *Session) onAnswer(ctx context.Context) core.EventHandler {
	return func(payload json.RawMessage) {
		var p signal.AnswerPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Error().Err(err).Str("module", "call").Msg("bad answer payload")
			return
		}
		media := s.currentMedia()
		if media == nil {
			return
		}
		if err := media.ApplyAnswer(ctx, p.Answer); err != nil {
			// Stale or duplicate answers are ignored, not fatal.
			log.Debug().Err(err).Str("module", "call").Msg("answer ignored")
		}
	}
}

func (s *Session) onCandidate(payload json.RawMessage) {
	var p signal.CandidatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("bad candidate payload")
		return
	}
	media := s.currentMedia()
	if media == nil {
		return
	}
	if err := media.AddRemoteCandidate(p.Candidate); err != nil {
		log.Debug().Err(err).Str("module", "call").Msg("candidate dropped")
	}
}

// onRemoteEnd handles call-declined and call-ended: teardown without echoing
// an end signal back.
func (s *Session) onRemoteEnd(ctx context.Context) {
	log.Info().Str("module", "call").Str("self", string(s.self)).Msg("remote ended call")
	s.teardown(ctx, false)
}

// End terminates the call locally: the peer is told once, then the session
// tears down. Safe to call from any state, any number of times.
func (s *Session) End(ctx context.Context) {
	s.teardown(ctx, true)
}

// teardown is the single cleanup path. It is idempotent so racing triggers
// (local end, remote end, transport failure) cannot double-free resources.
func (s *Session) teardown(ctx context.Context, notifyPeer bool) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.ended = true
	s.status = domain.StatusEnded
	media := s.media
	stop := s.stopListen
	tickStop := s.tickStop
	remote := s.remote
	s.mu.Unlock()

	if notifyPeer {
		s.send(ctx, signal.EventCallEnded, signal.ControlPayload{})
	}
	if media != nil {
		media.Close()
	}
	if tickStop != nil {
		close(tickStop)
	}
	if stop != nil {
		stop()
	}
	if remote != nil {
		remote.Clear()
	}
	log.Info().Str("module", "call").Str("self", string(s.self)).Str("role", string(s.role)).Msg("session ended")
	if s.onEnded != nil {
		s.onEnded()
	}
}

// markConnected is idempotent: the first confirmation (call-accepted or the
// transport's connected state) starts the duration counter, later ones are
// no-ops.
func (s *Session) markConnected() {
	s.mu.Lock()
	if !s.status.Active() || s.status == domain.StatusConnected {
		s.mu.Unlock()
		return
	}
	s.status = domain.StatusConnected
	s.tickStop = make(chan struct{})
	stop := s.tickStop
	s.mu.Unlock()

	log.Info().Str("module", "call").Str("self", string(s.self)).Msg("connected")
	go s.runTicker(stop)
}

func (s *Session) runTicker(stop chan struct{}) {
	t := time.NewTicker(s.tick)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.mu.Lock()
			if s.status != domain.StatusConnected {
				s.mu.Unlock()
				return
			}
			s.duration++
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}

func (s *Session) addRemoteTrack(track core.RemoteTrack, streamID string) {
	s.mu.Lock()
	if s.remote == nil {
		// The transport may deliver bare tracks with no stream; create the
		// remote stream lazily either way.
		s.remote = core.NewRemoteStream(streamID)
	}
	remote := s.remote
	s.mu.Unlock()
	remote.AddTrack(track)
}

// send is fire-and-forget: delivery failures are logged, never retried. A
// lost message shows up only as a call that never progresses.
func (s *Session) send(ctx context.Context, event string, payload any) {
	if err := s.signaler.SendToPeer(ctx, s.peer, event, payload); err != nil {
		log.Error().Err(err).Str("module", "call").Str("event", event).Msg("signal send failed")
	}
}

func (s *Session) currentMedia() core.MediaSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.media
}
