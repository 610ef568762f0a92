//go:build !linux

package rtc

import (
	"fmt"
	"runtime"

	"github.com/pion/webrtc/v4"

	"github.com/univibe/vibecall/internal/core"
)

// Capture drivers are wired for Linux (V4L2 + malgo) only. Other platforms
// fail acquisition up front so the session aborts before any signaling.
func initMedia(Config) (*webrtc.PeerConnection, []*localTrack, error) {
	return nil, nil, fmt.Errorf("%w: no capture drivers on %s", core.ErrDeviceUnavailable, runtime.GOOS)
}
