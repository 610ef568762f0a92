package rtc

import (
	"sync"

	"github.com/pion/mediadevices"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// localTrack pairs a captured mediadevices track with the RTPSender it was
// attached through. Mute swaps the sender's track for nil instead of touching
// SDP, so toggling never renegotiates.
type localTrack struct {
	kind   webrtc.RTPCodecType
	track  mediadevices.Track
	sender *webrtc.RTPSender

	mu      sync.Mutex
	enabled bool
	stopped bool
}

func newLocalTrack(track mediadevices.Track, sender *webrtc.RTPSender) *localTrack {
	return &localTrack{
		kind:    track.Kind(),
		track:   track,
		sender:  sender,
		enabled: true,
	}
}

func (t *localTrack) Kind() webrtc.RTPCodecType { return t.kind }

func (t *localTrack) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

func (t *localTrack) SetEnabled(on bool) {
	t.mu.Lock()
	if t.stopped || t.enabled == on {
		t.mu.Unlock()
		return
	}
	t.enabled = on
	t.mu.Unlock()

	var next webrtc.TrackLocal
	if on {
		next = t.track
	}
	if err := t.sender.ReplaceTrack(next); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("kind", t.kind.String()).Msg("replace track")
	}
}

// Stop releases the capture device. Called once from Session.Close.
func (t *localTrack) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	if err := t.track.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("kind", t.kind.String()).Msg("track close")
	}
}
