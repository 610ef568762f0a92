package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/univibe/vibecall/internal/adapters/signalws"
	"github.com/univibe/vibecall/internal/config"
	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
	"github.com/univibe/vibecall/internal/signal"
)

// Spins up a real relay over httptest and drives it with two signalws
// clients, covering the full client→relay→client path.
func TestRelayEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus()
	router := SetupRouter(ctx, &config.Config{Mode: "release"}, NewController(bus))
	srv := httptest.NewServer(router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	alice, err := signalws.Dial(ctx, wsURL, domain.UserID("u1"))
	if err != nil {
		t.Fatal(err)
	}
	defer alice.Close()
	bob, err := signalws.Dial(ctx, wsURL, domain.UserID("u2"))
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Close()

	waitSubscribed(t, bus, signal.ChannelFor("u1"))
	waitSubscribed(t, bus, signal.ChannelFor("u2"))

	bobGot := make(chan webrtc.ICECandidateInit, 4)
	aliceGot := make(chan string, 4)
	if _, err := bob.Listen(ctx, "u2", map[string]core.EventHandler{
		signal.EventICECandidate: func(payload json.RawMessage) {
			var p signal.CandidatePayload
			if err := json.Unmarshal(payload, &p); err != nil {
				t.Errorf("bad candidate payload: %v", err)
				return
			}
			bobGot <- p.Candidate
		},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.Listen(ctx, "u1", map[string]core.EventHandler{
		signal.EventCallAccepted: func(json.RawMessage) { aliceGot <- signal.EventCallAccepted },
	}); err != nil {
		t.Fatal(err)
	}

	cand := signal.CandidatePayload{Candidate: webrtc.ICECandidateInit{Candidate: "candidate:1 udp"}}
	if err := alice.SendToPeer(ctx, "u2", signal.EventICECandidate, cand); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-bobGot:
		if got.Candidate != "candidate:1 udp" {
			t.Fatalf("candidate = %q", got.Candidate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("candidate never reached u2")
	}
	// Sending on u2's channel must not loop back to u1.
	select {
	case ev := <-aliceGot:
		t.Fatalf("unexpected event on u1's channel: %s", ev)
	case <-time.After(50 * time.Millisecond):
	}

	if err := bob.SendToPeer(ctx, "u1", signal.EventCallAccepted, signal.ControlPayload{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-aliceGot:
	case <-time.After(2 * time.Second):
		t.Fatal("call-accepted never reached u1")
	}
}

func TestRelayDropsUnknownEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus()
	router := SetupRouter(ctx, &config.Config{Mode: "release"}, NewController(bus))
	srv := httptest.NewServer(router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	alice, err := signalws.Dial(ctx, wsURL, domain.UserID("u1"))
	if err != nil {
		t.Fatal(err)
	}
	defer alice.Close()
	bob, err := signalws.Dial(ctx, wsURL, domain.UserID("u2"))
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Close()
	waitSubscribed(t, bus, signal.ChannelFor("u2"))

	got := make(chan string, 1)
	if _, err := bob.Listen(ctx, "u2", map[string]core.EventHandler{
		"bogus-event": func(json.RawMessage) { got <- "bogus-event" },
	}); err != nil {
		t.Fatal(err)
	}

	if err := alice.SendToPeer(ctx, "u2", "bogus-event", signal.ControlPayload{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
		t.Fatal("relay forwarded an event outside the wire contract")
	case <-time.After(100 * time.Millisecond):
	}
}

// Frames whose payload does not decode into the event's wire shape are
// dropped before publish; the connection itself stays usable.
func TestRelayDropsMalformedPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewMemoryBus()
	router := SetupRouter(ctx, &config.Config{Mode: "release"}, NewController(bus))
	srv := httptest.NewServer(router)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	alice, err := signalws.Dial(ctx, wsURL, domain.UserID("u1"))
	if err != nil {
		t.Fatal(err)
	}
	defer alice.Close()
	bob, err := signalws.Dial(ctx, wsURL, domain.UserID("u2"))
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Close()
	waitSubscribed(t, bus, signal.ChannelFor("u2"))

	got := make(chan json.RawMessage, 1)
	if _, err := bob.Listen(ctx, "u2", map[string]core.EventHandler{
		signal.EventICECandidate: func(p json.RawMessage) { got <- p },
	}); err != nil {
		t.Fatal(err)
	}

	if err := alice.SendToPeer(ctx, "u2", signal.EventICECandidate, map[string]any{"candidate": "not-an-object"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
		t.Fatal("relay forwarded a malformed candidate payload")
	case <-time.After(100 * time.Millisecond):
	}

	cand := signal.CandidatePayload{Candidate: webrtc.ICECandidateInit{Candidate: "candidate:2 udp"}}
	if err := alice.SendToPeer(ctx, "u2", signal.EventICECandidate, cand); err != nil {
		t.Fatal(err)
	}
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("well-formed candidate never reached u2")
	}
}

func waitSubscribed(t *testing.T, bus *MemoryBus, channel string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for bus.Subscribers(channel) == 0 {
		select {
		case <-deadline:
			t.Fatalf("no subscriber on %s", channel)
		case <-time.After(time.Millisecond):
		}
	}
}
