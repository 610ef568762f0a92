package relay

import (
	"context"
	"testing"
)

func TestMemoryBusRouting(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	var got []string
	cancel, err := bus.Subscribe(ctx, "video-call-u1", func(data []byte) {
		got = append(got, string(data))
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := bus.Publish(ctx, "video-call-u1", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(ctx, "video-call-u1", []byte("b")); err != nil {
		t.Fatal(err)
	}
	// Wrong channel: silently dropped, not an error.
	if err := bus.Publish(ctx, "video-call-u2", []byte("c")); err != nil {
		t.Fatal(err)
	}

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("delivered = %q", got)
	}

	cancel()
	cancel() // idempotent
	if err := bus.Publish(ctx, "video-call-u1", []byte("d")); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("delivery after unsubscribe: %q", got)
	}
	if n := bus.Subscribers("video-call-u1"); n != 0 {
		t.Fatalf("subscribers = %d", n)
	}
}

func TestMemoryBusFanout(t *testing.T) {
	ctx := context.Background()
	bus := NewMemoryBus()

	a, b := 0, 0
	if _, err := bus.Subscribe(ctx, "ch", func([]byte) { a++ }); err != nil {
		t.Fatal(err)
	}
	if _, err := bus.Subscribe(ctx, "ch", func([]byte) { b++ }); err != nil {
		t.Fatal(err)
	}
	if err := bus.Publish(ctx, "ch", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if a != 1 || b != 1 {
		t.Fatalf("fanout = %d/%d", a, b)
	}
}
