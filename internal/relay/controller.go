package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/univibe/vibecall/internal/config"
	"github.com/univibe/vibecall/internal/domain"
	"github.com/univibe/vibecall/internal/signal"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller terminates client websockets and bridges them onto the Bus.
// Each connection is subscribed to its user's own channel at upgrade time,
// before any message can be sent through it, so the callee side never races
// its own subscription.
type Controller struct {
	Bus Bus
}

func NewController(bus Bus) *Controller {
	return &Controller{Bus: bus}
}

func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	user := domain.UserID(c.Query("user"))
	if user == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("ws upgrade")
		return
	}
	conn := newWSConn(ws)
	log.Info().Str("module", "relay").Str("user", string(user)).Msg("new signaling connection")

	channel := signal.ChannelFor(user)
	cancel, err := ctl.Bus.Subscribe(ctx, channel, func(data []byte) {
		if err := conn.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "relay").Str("user", string(user)).Msg("dropped inbound envelope")
		}
	})
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Str("channel", channel).Msg("bus subscribe")
		conn.Close()
		return
	}

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, user, conn, cancel)
}

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "relay").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, user domain.UserID, c *wsConn, cancel func()) {
	defer func() {
		log.Info().Str("module", "relay").Str("user", string(user)).Msg("signaling connection closing")
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleFrame(ctx, user, data)
		}
	}
}

// handleFrame publishes one client frame on its target channel. Unknown
// events and payloads that do not decode into the event's wire shape are
// dropped; the relay never acts on payload contents beyond that.
func (ctl *Controller) handleFrame(ctx context.Context, user domain.UserID, data []byte) {
	frame, err := signal.DecodeFrame(data)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Str("user", string(user)).Msg("bad frame")
		return
	}
	if !signal.Known(frame.Event) {
		log.Warn().Str("module", "relay").Str("event", frame.Event).Msg("unknown signal event")
		return
	}
	shape, err := signal.PayloadFor(frame.Event)
	if err == nil {
		err = json.Unmarshal(frame.Payload, shape)
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "relay").Str("event", frame.Event).Msg("malformed payload")
		return
	}
	env, err := signal.EncodeEnvelope(frame.Event, frame.Payload)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("encode envelope")
		return
	}
	if err := ctl.Bus.Publish(ctx, frame.Channel, env); err != nil {
		log.Error().Err(err).Str("module", "relay").Str("channel", frame.Channel).Msg("bus publish")
	}
}

// SetupRouter builds the relay's HTTP surface.
func SetupRouter(ctx context.Context, cfg *config.Config, ctl *Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})
	return r
}
