// Package engine drives one local simulation instance: a frame loop that
// integrates and paints, interleaved with inbound network mutations. The
// engine goroutine is the only mutator of its World, so physics and message
// handling never run concurrently.
package engine

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	"physics-playground/internal/net/proto"
	"physics-playground/internal/sim"
	"physics-playground/logging"
)

// tickRate is the nominal frame rate of the loop.
const tickRate = 60

// Painter renders the current world after each integration tick.
type Painter interface {
	Paint(world *sim.World)
}

type PainterFunc func(world *sim.World)

func (f PainterFunc) Paint(world *sim.World) {
	if f != nil {
		f(world)
	}
}

// Sender shares local mutations with the relay. The sync client satisfies
// it; a nop sender keeps the engine usable offline.
type Sender interface {
	SendUpdate(update proto.UpdatePayload) bool
}

type nopSender struct{}

func (nopSender) SendUpdate(proto.UpdatePayload) bool {
	return false
}

type Config struct {
	Painter   Painter
	Sender    Sender
	Logger    *log.Logger
	Publisher logging.Publisher

	// Now overrides the frame clock in tests.
	Now func() time.Time
}

// Engine owns one World and the loop that advances it.
type Engine struct {
	world     *sim.World
	inbox     chan proto.Message
	painter   Painter
	sender    Sender
	logger    *log.Logger
	publisher logging.Publisher
	now       func() time.Time

	last     time.Time
	nextBall atomic.Uint64
}

func New(cfg Config) *Engine {
	painter := cfg.Painter
	if painter == nil {
		painter = PainterFunc(nil)
	}
	sender := cfg.Sender
	if sender == nil {
		sender = nopSender{}
	}
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

	return &Engine{
		world:     sim.NewWorld(),
		inbox:     make(chan proto.Message, 64),
		painter:   painter,
		sender:    sender,
		logger:    logger,
		publisher: publisher,
		now:       now,
	}
}

// World exposes the engine's simulation state. Callers outside the engine
// goroutine must not mutate it while the loop runs.
func (e *Engine) World() *sim.World {
	return e.world
}

// Deliver hands one decoded inbound frame to the loop. A full inbox drops
// the message; broadcast hints are best-effort, never queued unboundedly.
func (e *Engine) Deliver(msg proto.Message) {
	select {
	case e.inbox <- msg:
	default:
		e.logger.Printf("inbox full, dropping %T", msg)
	}
}

// Run drives the frame loop until the stop channel closes. Each tick
// integrates every object by the elapsed wall time and paints; inbound
// mutations apply between ticks. There is no max-delta clamp; a stalled
// process produces one large delta on resume.
func (e *Engine) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	e.last = e.now()
	for {
		select {
		case <-stop:
			return
		case msg := <-e.inbox:
			e.Apply(msg)
		case <-ticker.C:
			e.Step(e.now())
		}
	}
}

// Step advances the simulation by the time elapsed since the previous step
// and paints the result.
func (e *Engine) Step(now time.Time) {
	if e.last.IsZero() {
		e.last = now
	}
	dt := now.Sub(e.last).Seconds()
	e.last = now
	if dt < 0 {
		dt = 0
	}

	e.world.Advance(dt)
	e.painter.Paint(e.world)
}

// Apply executes one inbound message against the world. Unknown actions are
// logged and discarded; nothing here ever raises to the caller or closes the
// connection.
func (e *Engine) Apply(msg proto.Message) {
	switch m := msg.(type) {
	case proto.PhysicsInit:
		e.world.SetConfig(proto.ConfigFromInit(m.Init))
		e.publishWorldEvent("simulation.config_replaced")
	case proto.PhysicsUpdate:
		e.applyUpdate(m.Update)
	case proto.ClientReady:
		// Client-to-server only; nothing to apply locally.
	}
}

func (e *Engine) applyUpdate(update proto.UpdatePayload) {
	switch update.Action {
	case proto.ActionAddObject:
		if update.Object == nil {
			e.logger.Printf("add_object without object payload")
			return
		}
		e.world.Add(update.Object.ToObject())
	case proto.ActionRemoveObject:
		id := update.ID
		if id == "" && update.Object != nil {
			id = update.Object.ID
		}
		if id == "" {
			e.logger.Printf("remove_object without id")
			return
		}
		e.world.Remove(id)
	case proto.ActionUpdateGravity, proto.ActionGravityChanged:
		if update.Gravity == nil {
			e.logger.Printf("%s without gravity payload", update.Action)
			return
		}
		e.world.SetGravity(*update.Gravity)
	case proto.ActionReset:
		e.world.Reset()
		e.publishWorldEvent("simulation.reset")
	case proto.ActionTest:
		e.logger.Printf("test update received")
	default:
		e.logger.Printf("unknown update action %q", update.Action)
	}
}

// AddBall spawns a new demo ball locally and shares it with the relay.
func (e *Engine) AddBall() *sim.Object {
	bounds := e.world.Config().Bounds
	n := e.nextBall.Add(1)
	x := math.Mod(float64(n)*137, math.Max(bounds.Width-100, 1)) + 50
	obj := sim.NewCircle(fmt.Sprintf("ball-%d-%d", n, e.now().UnixMilli()), x, 50, sim.Vec2{X: 2 - float64(n%5)}, 1, 15)

	e.world.Add(obj)
	payload := proto.FromObject(obj)
	e.sender.SendUpdate(proto.UpdatePayload{Action: proto.ActionAddObject, Object: &payload})
	return obj
}

// ToggleGravity flips gravity between the default 9.81 and zero, exactly,
// and shares the new value.
func (e *Engine) ToggleGravity() sim.Vec2 {
	gravity := e.world.Config().Gravity
	if gravity.Y == 0 {
		gravity.Y = sim.DefaultGravityY
	} else {
		gravity.Y = 0
	}
	e.world.SetGravity(gravity)
	e.sender.SendUpdate(proto.UpdatePayload{Action: proto.ActionUpdateGravity, Gravity: &gravity})
	return gravity
}

// ResetWorld restores the demo objects locally and shares the reset.
func (e *Engine) ResetWorld() {
	e.world.Reset()
	e.sender.SendUpdate(proto.UpdatePayload{Action: proto.ActionReset})
}

func (e *Engine) publishWorldEvent(eventType logging.EventType) {
	e.publisher.Publish(context.Background(), logging.Event{
		Type:     eventType,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySimulation,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
	})
}
