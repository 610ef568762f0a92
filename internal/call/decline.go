package call

import (
	"context"

	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
	"github.com/univibe/vibecall/internal/signal"
)

// Decline refuses an incoming call without ever creating a session: no media
// is acquired and nothing is subscribed, one call-declined message goes to
// the caller's channel.
func Decline(ctx context.Context, sig core.Signaler, caller domain.UserID) error {
	return sig.SendToPeer(ctx, caller, signal.EventCallDeclined, signal.ControlPayload{})
}
