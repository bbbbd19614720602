// Package client implements the sync side of the relay protocol: one
// WebSocket connection, a reconnect state machine with backoff, outbound
// mutation gating, and inbound dispatch into the simulation engine.
package client

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"physics-playground/internal/net/proto"
	"physics-playground/logging"
)

const (
	// DefaultMaxRetries bounds consecutive reconnect attempts before the
	// client gives up for good.
	DefaultMaxRetries = 5

	// DefaultBaseDelay scales the backoff: attempt n waits n × base.
	DefaultBaseDelay = time.Second
)

// Status is the connection lifecycle state.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is the transport surface the client needs; *websocket.Conn satisfies
// it, and tests substitute scripted connections.
type Conn interface {
	ReadMessage() (messageType int, payload []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens one connection attempt.
type Dialer interface {
	Dial(url string) (Conn, error)
}

type wsDialer struct{}

func (wsDialer) Dial(url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Clock abstracts time so tests can step reconnect delays virtually.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type Config struct {
	URL        string
	Dialer     Dialer
	Clock      Clock
	MaxRetries int
	BaseDelay  time.Duration
	Logger     *log.Logger
	Publisher  logging.Publisher

	// OnMessage receives every decoded inbound frame. It runs on the
	// client's read goroutine; implementations hand off to their own loop.
	OnMessage func(proto.Message)
}

// Client owns one relay connection and its reconnect state machine.
type Client struct {
	url        string
	dialer     Dialer
	clock      Clock
	maxRetries int
	baseDelay  time.Duration
	logger     *log.Logger
	publisher  logging.Publisher
	onMessage  func(proto.Message)

	mu         sync.Mutex
	status     Status
	retryCount int
	conn       Conn

	wmu  sync.Mutex
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func New(cfg Config) *Client {
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = wsDialer{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	return &Client{
		url:        cfg.URL,
		dialer:     dialer,
		clock:      clock,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
		publisher:  publisher,
		onMessage:  cfg.OnMessage,
		status:     StatusConnecting,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run drives the state machine until the retry budget is spent or Stop is
// called. It blocks; callers run it on its own goroutine.
func (c *Client) Run() {
	defer close(c.done)

	for {
		select {
		case <-c.quit:
			c.setStatus(StatusClosed)
			return
		default:
		}

		c.setStatus(StatusConnecting)
		conn, err := c.dialer.Dial(c.url)
		if err != nil {
			c.logger.Printf("connection attempt failed: %v", err)
			c.setStatus(StatusClosed)
			if !c.awaitRetry() {
				return
			}
			continue
		}

		c.open(conn)
		c.readLoop(conn)
		c.dropConn()
		c.setStatus(StatusClosed)
		if !c.awaitRetry() {
			return
		}
	}
}

// Stop tears the client down; a terminal closed state follows.
func (c *Client) Stop() {
	c.once.Do(func() {
		close(c.quit)
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
	})
	<-c.done
}

// Status reports the current lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RetryCount reports consecutive failed attempts since the last open.
func (c *Client) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// SendUpdate shares one local mutation. Messages are sent only while the
// connection is open; otherwise they are dropped, never queued.
func (c *Client) SendUpdate(update proto.UpdatePayload) bool {
	c.mu.Lock()
	conn := c.conn
	open := c.status == StatusOpen
	c.mu.Unlock()

	if !open || conn == nil {
		c.logger.Printf("dropping %s update: connection not open", update.Action)
		return false
	}

	data, err := proto.Encode(proto.TypePhysicsUpdate, update, c.clock.Now().UnixMilli())
	if err != nil {
		c.logger.Printf("failed to marshal %s update: %v", update.Action, err)
		return false
	}
	if err := c.write(conn, data); err != nil {
		c.logger.Printf("failed to send %s update: %v", update.Action, err)
		return false
	}
	return true
}

// open enters the open state: reset the retry budget and announce readiness
// immediately.
func (c *Client) open(conn Conn) {
	c.mu.Lock()
	c.conn = conn
	c.retryCount = 0
	c.mu.Unlock()
	c.setStatus(StatusOpen)

	data, err := proto.Encode(proto.TypeClientReady, nil, c.clock.Now().UnixMilli())
	if err != nil {
		c.logger.Printf("failed to marshal client_ready: %v", err)
		return
	}
	if err := c.write(conn, data); err != nil {
		c.logger.Printf("failed to send client_ready: %v", err)
	}
}

func (c *Client) readLoop(conn Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := proto.Decode(payload)
		if err != nil {
			c.logger.Printf("discarding inbound message: %v", err)
			continue
		}
		if c.onMessage != nil {
			c.onMessage(msg)
		}
	}
}

func (c *Client) dropConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// awaitRetry sleeps out the backoff before the next attempt. The delay grows
// linearly with the attempt count: 1s, 2s, 3s, 4s, 5s. Only one retry timer
// is ever outstanding. Returns false when the budget is spent or the client
// stopped.
func (c *Client) awaitRetry() bool {
	c.mu.Lock()
	if c.retryCount >= c.maxRetries {
		c.mu.Unlock()
		c.logger.Printf("giving up after %d reconnect attempts", c.maxRetries)
		c.publisher.Publish(context.Background(), logging.Event{
			Type:     "client.reconnect_exhausted",
			Severity: logging.SeverityError,
			Category: logging.CategoryNetwork,
			Actor:    logging.EntityRef{Kind: logging.EntityKindClient},
		})
		return false
	}
	c.retryCount++
	attempt := c.retryCount
	c.mu.Unlock()

	delay := time.Duration(attempt) * c.baseDelay
	c.logger.Printf("reconnect attempt %d in %s", attempt, delay)

	select {
	case <-c.clock.After(delay):
		return true
	case <-c.quit:
		return false
	}
}

func (c *Client) write(conn Conn, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	if c.status == status {
		c.mu.Unlock()
		return
	}
	c.status = status
	c.mu.Unlock()

	c.publisher.Publish(context.Background(), logging.Event{
		Type:     logging.EventType("client.status_" + status.String()),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Actor:    logging.EntityRef{Kind: logging.EntityKindClient},
	})
}
