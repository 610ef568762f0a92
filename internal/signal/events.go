// Package signal defines the wire contract of the call signaling channel:
// event names, per-event payloads and channel naming. Payloads are a tagged
// union: one envelope with an event discriminator, one struct per event,
// so a session never handles an untyped bag of fields.
package signal

import (
	"fmt"

	"github.com/pion/webrtc/v4"

	"github.com/univibe/vibecall/internal/domain"
)

const (
	EventOffer        = "webrtc-offer"
	EventAnswer       = "webrtc-answer"
	EventICECandidate = "webrtc-ice-candidate"
	EventCallAccepted = "call-accepted"
	EventCallDeclined = "call-declined"
	EventCallEnded    = "call-ended"
)

// channelPrefix keeps the naming asymmetry of the protocol in one place:
// outbound messages go to video-call-<remoteUserId>, the inbound subscription
// is video-call-<localUserId>. Getting this wrong drops signaling silently.
const channelPrefix = "video-call-"

// ChannelFor returns the signaling channel name owned by the given user.
func ChannelFor(user domain.UserID) string {
	return channelPrefix + string(user)
}

// Known reports whether name is part of the wire contract.
func Known(name string) bool {
	switch name {
	case EventOffer, EventAnswer, EventICECandidate,
		EventCallAccepted, EventCallDeclined, EventCallEnded:
		return true
	}
	return false
}

// OfferPayload accompanies EventOffer. The caller profile lets the callee
// render who is calling before the connection exists.
type OfferPayload struct {
	Offer         webrtc.SessionDescription `json:"offer"`
	CallerProfile domain.ProfileSummary     `json:"callerProfile"`
}

// AnswerPayload accompanies EventAnswer.
type AnswerPayload struct {
	Answer webrtc.SessionDescription `json:"answer"`
}

// CandidatePayload accompanies EventICECandidate.
type CandidatePayload struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// ControlPayload is the empty body of call-accepted / call-declined /
// call-ended messages.
type ControlPayload struct{}

// PayloadFor returns a zero value of the payload type for an event, mostly
// useful for decoding into the right shape.
func PayloadFor(event string) (any, error) {
	switch event {
	case EventOffer:
		return &OfferPayload{}, nil
	case EventAnswer:
		return &AnswerPayload{}, nil
	case EventICECandidate:
		return &CandidatePayload{}, nil
	case EventCallAccepted, EventCallDeclined, EventCallEnded:
		return &ControlPayload{}, nil
	}
	return nil, fmt.Errorf("unknown signal event %q", event)
}
