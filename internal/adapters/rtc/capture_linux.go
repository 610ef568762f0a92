//go:build linux

package rtc

import (
	"fmt"
	"strings"

	"github.com/pion/interceptor"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/core"
)

// initMedia builds a PeerConnection with VP8+Opus codecs and captures local
// camera/microphone via pion/mediadevices. GetUserMedia fails as a unit if
// either track cannot be opened, so attempts degrade: video+audio, then
// video-only, then audio-only. All attempts failing is a hard error; the
// session must not reach signaling without local media.
func initMedia(cfg Config) (*webrtc.PeerConnection, []*localTrack, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, nil, err
	}
	vpxParams.BitRate = 1_500_000

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, nil, err
	}

	selector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	mediaEngine := &webrtc.MediaEngine{}
	selector.Populate(mediaEngine)

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, registry); err != nil {
		return nil, nil, err
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(registry),
	)

	pc, err := api.NewPeerConnection(webrtcConfig(cfg))
	if err != nil {
		return nil, nil, err
	}

	type attempt struct {
		video bool
		audio bool
		label string
	}
	var lastErr error
	for _, a := range []attempt{
		{true, true, "video+audio"},
		{true, false, "video-only"},
		{false, true, "audio-only"},
	} {
		constraints := mediadevices.MediaStreamConstraints{Codec: selector}
		if a.video {
			constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
				// Raw formats only; MJPEG nodes on some cameras produce
				// malformed frames that poison the VP8 encoder.
				c.FrameFormat = prop.FrameFormatOneOf{
					frame.FormatYUYV,
					frame.FormatI420,
					frame.FormatI444,
					frame.FormatRGBA,
				}
				c.Width = prop.IntRanged{Max: 640}
				c.Height = prop.IntRanged{Max: 480}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}

		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			log.Warn().Err(err).Str("module", "rtc").Str("attempt", a.label).Msg("GetUserMedia failed")
			lastErr = err
			continue
		}

		var tracks []*localTrack
		failed := false
		for _, track := range stream.GetTracks() {
			track.OnEnded(func(err error) {
				if err != nil {
					log.Warn().Err(err).Str("module", "rtc").Msg("local track ended")
				}
			})
			sender, err := pc.AddTrack(track)
			if err != nil {
				log.Error().Err(err).Str("module", "rtc").Msg("AddTrack error")
				lastErr = err
				failed = true
				break
			}
			tracks = append(tracks, newLocalTrack(track, sender))
		}
		if failed {
			for _, t := range tracks {
				t.Stop()
			}
			continue
		}

		log.Info().Str("module", "rtc").Str("attempt", a.label).Int("tracks", len(tracks)).Msg("local media captured")
		return pc, tracks, nil
	}

	_ = pc.Close()
	return nil, nil, captureError(lastErr)
}

func webrtcConfig(cfg Config) webrtc.Configuration {
	urls := cfg.ICEServers
	if len(urls) == 0 {
		urls = DefaultConfig().ICEServers
	}
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: urls}},
	}
}

func captureError(err error) error {
	if err == nil {
		return core.ErrDeviceUnavailable
	}
	if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
		return fmt.Errorf("%w: %v", core.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", core.ErrDeviceUnavailable, err)
}
