package ws

import (
	"context"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"physics-playground/logging"
)

// Registry owns the set of open relay connections. It is injected into the
// handler so tests can exercise registration and fan-out without a real
// network listener. The single mutex guarding the set is the relay's only
// shared state.
type Registry struct {
	logger    *log.Logger
	publisher logging.Publisher

	mu       sync.Mutex
	sessions map[*session]struct{}
}

type RegistryConfig struct {
	Logger    *log.Logger
	Publisher logging.Publisher
}

func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Registry{
		logger:    logger,
		publisher: publisher,
		sessions:  make(map[*session]struct{}),
	}
}

func (r *Registry) register(s *session) {
	r.mu.Lock()
	r.sessions[s] = struct{}{}
	r.mu.Unlock()

	r.publisher.Publish(context.Background(), logging.Event{
		Type:     "network.connection_opened",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Actor:    logging.EntityRef{ID: s.id, Kind: logging.EntityKindConnection},
	})
}

func (r *Registry) unregister(s *session) {
	r.mu.Lock()
	_, ok := r.sessions[s]
	if ok {
		delete(r.sessions, s)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	r.publisher.Publish(context.Background(), logging.Event{
		Type:     "network.connection_closed",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Actor:    logging.EntityRef{ID: s.id, Kind: logging.EntityKindConnection},
	})
}

// Broadcast delivers one frame to every open connection, the sender
// included. A failed write tears down only that connection; delivery is
// fire-and-forget with no retry and no queue bound.
func (r *Registry) Broadcast(data []byte) {
	r.mu.Lock()
	targets := make([]*session, 0, len(r.sessions))
	for s := range r.sessions {
		targets = append(targets, s)
	}
	r.mu.Unlock()

	for _, s := range targets {
		if err := s.WriteMessage(websocket.TextMessage, data); err != nil {
			r.logger.Printf("failed to send update to %s: %v", s.id, err)
			r.unregister(s)
		}
	}
}

// Len reports the number of open connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
