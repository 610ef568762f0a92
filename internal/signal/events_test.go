package signal

import (
	"encoding/json"
	"testing"

	"github.com/pion/webrtc/v4"

	"github.com/univibe/vibecall/internal/domain"
)

func TestChannelNaming(t *testing.T) {
	if got := ChannelFor("u2"); got != "video-call-u2" {
		t.Fatalf("ChannelFor = %q", got)
	}
}

func TestKnown(t *testing.T) {
	for _, ev := range []string{
		EventOffer, EventAnswer, EventICECandidate,
		EventCallAccepted, EventCallDeclined, EventCallEnded,
	} {
		if !Known(ev) {
			t.Fatalf("%q should be known", ev)
		}
	}
	if Known("typing-indicator") {
		t.Fatal("unrelated event accepted")
	}
}

// The payload field names are the wire contract; renaming a struct field here
// breaks interop with every deployed peer.
func TestOfferPayloadWireFields(t *testing.T) {
	data, err := EncodeEnvelope(EventOffer, OfferPayload{
		Offer: webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0"},
		CallerProfile: domain.ProfileSummary{
			ID:        "u1",
			Name:      "Dana",
			AvatarURL: "https://cdn.example/u1.png",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	env, err := DecodeEnvelope(data)
	if err != nil {
		t.Fatal(err)
	}
	if env.Event != EventOffer {
		t.Fatalf("event = %q", env.Event)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(env.Payload, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"offer", "callerProfile"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("payload missing %q: %s", key, env.Payload)
		}
	}

	var profile map[string]json.RawMessage
	if err := json.Unmarshal(fields["callerProfile"], &profile); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"id", "name", "avatarUrl"} {
		if _, ok := profile[key]; !ok {
			t.Fatalf("profile missing %q: %s", key, fields["callerProfile"])
		}
	}
}

func TestPayloadFor(t *testing.T) {
	if _, err := PayloadFor(EventCallEnded); err != nil {
		t.Fatal(err)
	}
	if p, err := PayloadFor(EventICECandidate); err != nil {
		t.Fatal(err)
	} else if _, ok := p.(*CandidatePayload); !ok {
		t.Fatalf("PayloadFor(candidate) = %T", p)
	}
	if _, err := PayloadFor("nope"); err == nil {
		t.Fatal("unknown event should error")
	}
}
