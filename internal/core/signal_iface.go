package core

import (
	"context"
	"encoding/json"

	"github.com/univibe/vibecall/internal/domain"
)

// EventHandler receives the raw payload of one signaling event.
type EventHandler func(payload json.RawMessage)

// Signaler abstracts the per-user-addressed pub/sub used for session-control
// messages. Sends are fire-and-forget: if the peer is not subscribed the
// message is lost, there is no acknowledgement or retry.
//
// The channel used for sending is always named after the remote peer's ID,
// the channel listened on is always named after the local user's ID.
type Signaler interface {
	SendToPeer(ctx context.Context, peer domain.UserID, event string, payload any) error
	// Listen opens the inbound channel bound to self and dispatches incoming
	// events to handlers by name. Returns a stop function that removes the
	// subscription; stop is safe to call more than once.
	Listen(ctx context.Context, self domain.UserID, handlers map[string]EventHandler) (func(), error)
}
