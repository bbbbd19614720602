package engine

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"physics-playground/internal/net/proto"
	"physics-playground/internal/sim"
)

type recordingSender struct {
	mu      sync.Mutex
	updates []proto.UpdatePayload
}

func (s *recordingSender) SendUpdate(update proto.UpdatePayload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return true
}

func (s *recordingSender) sent() []proto.UpdatePayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]proto.UpdatePayload(nil), s.updates...)
}

func TestApplyAddObjectFromBroadcast(t *testing.T) {
	e := New(Config{})

	frame := []byte(`{"type":"physics_update","data":{"action":"add_object","object":{"id":"b1","x":10,"y":10,"velocity":{"x":0,"y":0},"mass":1,"type":"circle","radius":5}},"timestamp":777}`)
	msg, err := proto.Decode(frame)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	e.Apply(msg)

	obj, ok := e.World().Store().Get("b1")
	if !ok {
		t.Fatalf("b1 missing after add_object broadcast")
	}
	if obj.Position.X != 10 || obj.Position.Y != 10 {
		t.Fatalf("position = %+v, want {10 10}", obj.Position)
	}
	if obj.Velocity.X != 0 || obj.Velocity.Y != 0 {
		t.Fatalf("velocity = %+v, want zero", obj.Velocity)
	}
	if obj.Mass != 1 || obj.Shape.Kind != sim.ShapeCircle || obj.Shape.Radius != 5 {
		t.Fatalf("object fields mismatch: %+v", obj)
	}
}

func TestApplyRemoveAndReset(t *testing.T) {
	e := New(Config{})

	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionRemoveObject, ID: "ball-1"}})
	if _, ok := e.World().Store().Get("ball-1"); ok {
		t.Fatalf("ball-1 still present after remove_object")
	}

	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionReset}})
	if e.World().Store().Len() != 2 {
		t.Fatalf("store holds %d objects after reset, want the 2 demo balls", e.World().Store().Len())
	}
	if _, ok := e.World().Store().Get("ball-1"); !ok {
		t.Fatalf("reset did not re-seed ball-1")
	}
}

func TestApplyGravityActions(t *testing.T) {
	e := New(Config{})

	for _, action := range []string{proto.ActionUpdateGravity, proto.ActionGravityChanged} {
		gravity := sim.Vec2{X: 0, Y: 3.5}
		e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: action, Gravity: &gravity}})
		if e.World().Config().Gravity.Y != 3.5 {
			t.Fatalf("%s: gravity = %+v, want y=3.5", action, e.World().Config().Gravity)
		}
		e.World().SetGravity(sim.Vec2{Y: sim.DefaultGravityY})
	}
}

func TestApplyPhysicsInitReplacesConfig(t *testing.T) {
	e := New(Config{})

	e.Apply(proto.PhysicsInit{Init: proto.InitPayload{
		Gravity:     sim.Vec2{X: 1, Y: 2},
		WorldBounds: sim.Bounds{Width: 400, Height: 300},
	}})

	cfg := e.World().Config()
	if cfg.Gravity != (sim.Vec2{X: 1, Y: 2}) {
		t.Fatalf("gravity = %+v", cfg.Gravity)
	}
	if cfg.Bounds != (sim.Bounds{Width: 400, Height: 300}) {
		t.Fatalf("bounds = %+v", cfg.Bounds)
	}
}

func TestApplyIgnoresBadPayloads(t *testing.T) {
	e := New(Config{})
	before := e.World().Store().Len()

	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionAddObject}})
	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionRemoveObject}})
	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionUpdateGravity}})
	e.Apply(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: "explode_everything"}})

	if e.World().Store().Len() != before {
		t.Fatalf("bad payloads mutated the store")
	}
	if e.World().Config().Gravity.Y != sim.DefaultGravityY {
		t.Fatalf("bad payloads mutated gravity")
	}
}

func TestToggleGravityRoundTripIsExact(t *testing.T) {
	sender := &recordingSender{}
	e := New(Config{Sender: sender})

	off := e.ToggleGravity()
	if off.Y != 0 {
		t.Fatalf("first toggle gravity.y = %v, want 0", off.Y)
	}
	on := e.ToggleGravity()
	if on.Y != 9.81 {
		t.Fatalf("second toggle gravity.y = %v, want exactly 9.81", on.Y)
	}
	if e.World().Config().Gravity.Y != 9.81 {
		t.Fatalf("world gravity = %v after round trip", e.World().Config().Gravity.Y)
	}

	updates := sender.sent()
	if len(updates) != 2 {
		t.Fatalf("sent %d updates, want 2", len(updates))
	}
	for _, update := range updates {
		if update.Action != proto.ActionUpdateGravity || update.Gravity == nil {
			t.Fatalf("unexpected update: %+v", update)
		}
	}
}

func TestAddBallSharesWirePayload(t *testing.T) {
	sender := &recordingSender{}
	e := New(Config{Sender: sender})

	obj := e.AddBall()
	if _, ok := e.World().Store().Get(obj.ID); !ok {
		t.Fatalf("added ball missing locally")
	}

	updates := sender.sent()
	if len(updates) != 1 || updates[0].Action != proto.ActionAddObject {
		t.Fatalf("unexpected updates: %+v", updates)
	}
	payload := updates[0].Object
	if payload == nil || payload.ID != obj.ID {
		t.Fatalf("payload does not match added ball: %+v", payload)
	}

	// The payload must survive the wire format round trip intact.
	raw, err := json.Marshal(updates[0])
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded proto.UpdatePayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Object.ID != obj.ID || decoded.Object.Radius != obj.Shape.Radius {
		t.Fatalf("round trip mismatch: %+v", decoded.Object)
	}
}

func TestStepIntegratesByElapsedTime(t *testing.T) {
	base := time.UnixMilli(1_000_000)
	e := New(Config{Now: func() time.Time { return base }})
	e.World().Store().Clear()
	e.World().Add(sim.NewCircle("probe", 100, 100, sim.Vec2{}, 1, 5))

	e.Step(base)
	e.Step(base.Add(100 * time.Millisecond))

	obj, _ := e.World().Store().Get("probe")
	want := sim.DefaultGravityY * 0.1
	if diff := obj.Velocity.Y - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("velocity.y = %v, want ≈ %v", obj.Velocity.Y, want)
	}
}

func TestStepAcceptsLargeResumeDelta(t *testing.T) {
	base := time.UnixMilli(1_000_000)
	e := New(Config{Now: func() time.Time { return base }})
	e.World().Store().Clear()
	e.World().Add(sim.NewCircle("probe", 100, 100, sim.Vec2{}, 1, 5))

	e.Step(base)
	// A backgrounded instance resumes with one large delta.
	e.Step(base.Add(10 * time.Second))

	obj, _ := e.World().Store().Get("probe")
	if obj.Velocity.Y <= 0 {
		t.Fatalf("large delta was ignored: velocity.y = %v", obj.Velocity.Y)
	}
}

func TestRunPaintsAndAppliesInboxMessages(t *testing.T) {
	paints := make(chan struct{}, 64)
	e := New(Config{Painter: PainterFunc(func(*sim.World) {
		select {
		case paints <- struct{}{}:
		default:
		}
	})})

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		e.Run(stop)
		close(done)
	}()

	gravity := sim.Vec2{Y: 0}
	e.Deliver(proto.PhysicsUpdate{Update: proto.UpdatePayload{Action: proto.ActionUpdateGravity, Gravity: &gravity}})

	deadline := time.After(2 * time.Second)
	for painted := 0; painted < 2; {
		select {
		case <-paints:
			painted++
		case <-deadline:
			t.Fatalf("loop painted %d times, want at least 2", painted)
		}
	}

	close(stop)
	<-done

	if e.World().Config().Gravity.Y != 0 {
		t.Fatalf("inbox message never applied: gravity = %+v", e.World().Config().Gravity)
	}
}
