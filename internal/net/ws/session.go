package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// session wraps one live connection. The mutex serializes writes so a
// broadcast and a unicast reply never interleave their frames.
type session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{id: id, conn: conn}
}

func (s *session) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}

func (s *session) Close() error {
	return s.conn.Close()
}
