// Package signalws is the websocket implementation of core.Signaler: one
// connection to the relay, outbound frames addressed to the peer's channel,
// inbound envelopes dispatched to registered handlers.
package signalws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/core"
	"github.com/univibe/vibecall/internal/domain"
	"github.com/univibe/vibecall/internal/signal"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
)

// Client is a signaling connection for one local user. The relay subscribes
// the connection to the user's own channel at upgrade time, so inbound
// messages can arrive as soon as Dial returns. Anything that arrives before
// Listen installs handlers is dropped, a tolerated edge of the
// fire-and-forget design.
type Client struct {
	self domain.UserID
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	handlers map[string]core.EventHandler
	closed   bool
}

// Dial connects to the relay at relayURL (e.g. ws://host:port) and starts the
// read/write pumps.
func Dial(ctx context.Context, relayURL string, self domain.UserID) (*Client, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("relay url: %w", err)
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"user": {string(self)}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}

	c := &Client{
		self: self,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump(ctx)
	go c.readPump(ctx)
	log.Info().Str("module", "signalws").Str("user", string(self)).Str("relay", u.Host).Msg("connected to relay")
	return c, nil
}

// SendToPeer publishes one event on the peer's channel. Fire-and-forget: a
// full outbound queue or closed connection is an error here, but nothing is
// retried and no acknowledgement exists.
func (c *Client) SendToPeer(ctx context.Context, peer domain.UserID, event string, payload any) error {
	data, err := signal.EncodeFrame(signal.ChannelFor(peer), event, payload)
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

// Listen registers the handler set for inbound events. Calling it again
// replaces the previous set. The returned stop function detaches the
// handlers and closes the connection.
func (c *Client) Listen(ctx context.Context, self domain.UserID, handlers map[string]core.EventHandler) (func(), error) {
	if self != c.self {
		return nil, fmt.Errorf("listen as %q on a connection owned by %q", self, c.self)
	}
	c.mu.Lock()
	c.handlers = handlers
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.handlers = nil
			c.mu.Unlock()
			c.Close()
		})
	}, nil
}

// Close is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	_ = c.conn.Close()
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signalws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signalws").Msg("writePump write error")
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signalws").Str("user", string(c.self)).Msg("readPump closed")
				return
			}
			c.dispatch(data)
		}
	}
}

func (c *Client) dispatch(data []byte) {
	env, err := signal.DecodeEnvelope(data)
	if err != nil {
		log.Error().Err(err).Str("module", "signalws").Msg("bad envelope")
		return
	}
	c.mu.RLock()
	handler := c.handlers[env.Event]
	c.mu.RUnlock()
	if handler == nil {
		log.Warn().Str("module", "signalws").Str("event", env.Event).Msg("no handler for event")
		return
	}
	handler(env.Payload)
}
