package ws

import (
	"context"
	"fmt"
	"log"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"physics-playground/internal/net/proto"
	"physics-playground/internal/sim"
	"physics-playground/logging"
)

// Handler upgrades /ws requests and runs the relay read loop for each
// connection. The relay holds no simulation state beyond the constant default
// world configuration it hands to clients announcing readiness.
type Handler struct {
	registry  *Registry
	logger    *log.Logger
	publisher logging.Publisher
	upgrader  websocket.Upgrader
	now       func() time.Time
	nextID    atomic.Uint64
}

type HandlerConfig struct {
	Logger    *log.Logger
	Publisher logging.Publisher

	// Now overrides the broadcast timestamp source in tests.
	Now func() time.Time
}

func NewHandler(registry *Registry, cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		registry:  registry,
		logger:    logger,
		publisher: publisher,
		upgrader:  upgrader,
		now:       now,
	}
}

// Handle serves one WebSocket connection until it closes. Requests without a
// websocket handshake are answered with 400 by the upgrader.
func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	sess := newSession(fmt.Sprintf("conn-%d", h.nextID.Add(1)), conn)
	h.registry.register(sess)
	defer h.registry.unregister(sess)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(sess, payload)
	}
}

func (h *Handler) dispatch(sess *session, payload []byte) {
	msg, err := proto.Decode(payload)
	if err != nil {
		h.logger.Printf("discarding message from %s: %v", sess.id, err)
		h.publisher.Publish(context.Background(), logging.Event{
			Type:     "network.message_discarded",
			Severity: logging.SeverityWarn,
			Category: logging.CategoryNetwork,
			Actor:    logging.EntityRef{ID: sess.id, Kind: logging.EntityKindConnection},
			Payload:  map[string]any{"error": err.Error()},
		})
		return
	}

	switch m := msg.(type) {
	case proto.ClientReady:
		h.sendInit(sess)
	case proto.PhysicsUpdate:
		h.relay(sess, m)
	case proto.PhysicsInit:
		// Server-to-client only; a client echoing it back is a protocol
		// violation handled like any other unknown frame.
		h.logger.Printf("discarding physics_init from %s", sess.id)
	}
}

// sendInit replies to the requester only; the initial configuration is never
// broadcast.
func (h *Handler) sendInit(sess *session) {
	init := proto.InitFromConfig(sim.DefaultConfig())
	data, err := proto.Encode(proto.TypePhysicsInit, init, h.now().UnixMilli())
	if err != nil {
		h.logger.Printf("failed to marshal physics_init for %s: %v", sess.id, err)
		return
	}
	if err := sess.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Printf("failed to send physics_init to %s: %v", sess.id, err)
		h.registry.unregister(sess)
	}
}

// relay re-stamps the update with the server clock and fans it out to every
// open connection, the sender included. The payload bytes pass through
// untouched.
func (h *Handler) relay(sess *session, update proto.PhysicsUpdate) {
	data, err := proto.EncodeRaw(proto.TypePhysicsUpdate, update.Raw, h.now().UnixMilli())
	if err != nil {
		h.logger.Printf("failed to marshal broadcast from %s: %v", sess.id, err)
		return
	}

	h.publisher.Publish(context.Background(), logging.Event{
		Type:     "network.broadcast",
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Actor:    logging.EntityRef{ID: sess.id, Kind: logging.EntityKindConnection},
		Payload:  map[string]any{"action": update.Update.Action, "fanout": h.registry.Len()},
	})

	h.registry.Broadcast(data)
}
