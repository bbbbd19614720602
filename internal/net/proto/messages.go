// Package proto defines the JSON wire protocol shared by the relay and the
// sync client: one envelope per WebSocket text frame, dispatched on its type
// tag. Decoding produces an exhaustive tagged union so adding a message kind
// is a compile-checked change.
package proto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"physics-playground/internal/sim"
)

// Message type identifiers.
const (
	TypeClientReady   = "client_ready"
	TypePhysicsInit   = "physics_init"
	TypePhysicsUpdate = "physics_update"
)

// physics_update action identifiers.
const (
	ActionAddObject      = "add_object"
	ActionRemoveObject   = "remove_object"
	ActionUpdateGravity  = "update_gravity"
	ActionGravityChanged = "gravity_changed"
	ActionReset          = "reset"
	ActionTest           = "test"
)

// Envelope is the outer frame. Data stays raw so the relay can rebroadcast
// payloads byte-identical while replacing only the timestamp.
type Envelope struct {
	Type      string          `json:"type" jsonschema:"title=Message type,description=Discriminator for the payload carried in data."`
	Data      json.RawMessage `json:"data,omitempty" jsonschema:"title=Payload,description=Type-specific payload; absent for client_ready."`
	Timestamp int64           `json:"timestamp,omitempty" jsonschema:"title=Timestamp,description=Milliseconds since epoch; rewritten by the relay on broadcast."`
}

// InitPayload seeds a freshly connected client with the relay's fixed world
// configuration.
type InitPayload struct {
	Gravity     sim.Vec2   `json:"gravity" jsonschema:"title=Gravity,description=World gravity in units per second squared."`
	WorldBounds sim.Bounds `json:"worldBounds" jsonschema:"title=World bounds,description=Axis-aligned play area dimensions."`
}

// ObjectPayload is the flat on-wire form of a simulated body.
type ObjectPayload struct {
	ID       string   `json:"id" jsonschema:"title=Object id,description=Unique identifier within a simulation store."`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Velocity sim.Vec2 `json:"velocity"`
	Mass     float64  `json:"mass"`
	Type     string   `json:"type" jsonschema:"description=Shape discriminator: circle or rectangle."`
	Radius   float64  `json:"radius,omitempty"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
}

// UpdatePayload carries one shared mutation, dispatched on Action.
type UpdatePayload struct {
	Action  string         `json:"action" jsonschema:"title=Action,description=One of add_object remove_object update_gravity gravity_changed reset test."`
	Object  *ObjectPayload `json:"object,omitempty"`
	ID      string         `json:"id,omitempty"`
	Gravity *sim.Vec2      `json:"gravity,omitempty"`
}

// Message is the decoded form of an inbound frame. Exactly one concrete type
// exists per wire type tag.
type Message interface {
	message()
}

// ClientReady announces a connection is ready for its initial configuration.
type ClientReady struct {
	Timestamp int64
}

// PhysicsInit replaces the receiver's world configuration wholesale.
type PhysicsInit struct {
	Init      InitPayload
	Timestamp int64
}

// PhysicsUpdate carries one shared mutation plus the raw payload bytes for
// verbatim rebroadcast.
type PhysicsUpdate struct {
	Update    UpdatePayload
	Raw       json.RawMessage
	Timestamp int64
}

func (ClientReady) message()   {}
func (PhysicsInit) message()   {}
func (PhysicsUpdate) message() {}

// UnknownTypeError reports a frame whose type tag is not part of the
// protocol. Receivers log and discard these without closing the connection.
type UnknownTypeError struct {
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// Encode renders one outbound frame.
func Encode(msgType string, data any, timestamp int64) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	env := Envelope{Type: msgType, Timestamp: timestamp}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

// EncodeRaw renders one outbound frame around an already-encoded payload,
// splicing the bytes in verbatim. Unlike Encode it never re-marshals the
// payload, so whitespace and characters like < survive untouched.
func EncodeRaw(msgType string, raw json.RawMessage, timestamp int64) ([]byte, error) {
	if msgType == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	if len(raw) > 0 && !json.Valid(raw) {
		return nil, fmt.Errorf("encode %s payload: invalid raw json", msgType)
	}

	typeJSON, err := json.Marshal(msgType)
	if err != nil {
		return nil, fmt.Errorf("encode %s type: %w", msgType, err)
	}

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typeJSON)
	if len(raw) > 0 {
		buf.WriteString(`,"data":`)
		buf.Write(raw)
	}
	if timestamp != 0 {
		fmt.Fprintf(&buf, `,"timestamp":%d`, timestamp)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeEnvelope parses the outer frame without touching the payload.
func DecodeEnvelope(payload []byte) (Envelope, error) {
	if len(payload) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty frame")
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Decode parses a frame into its typed message. Frames with an unrecognized
// type tag yield UnknownTypeError.
func Decode(payload []byte) (Message, error) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		return nil, err
	}

	switch env.Type {
	case TypeClientReady:
		return ClientReady{Timestamp: env.Timestamp}, nil
	case TypePhysicsInit:
		var init InitPayload
		if err := json.Unmarshal(env.Data, &init); err != nil {
			return nil, fmt.Errorf("decode physics_init payload: %w", err)
		}
		return PhysicsInit{Init: init, Timestamp: env.Timestamp}, nil
	case TypePhysicsUpdate:
		var update UpdatePayload
		if err := json.Unmarshal(env.Data, &update); err != nil {
			return nil, fmt.Errorf("decode physics_update payload: %w", err)
		}
		return PhysicsUpdate{Update: update, Raw: env.Data, Timestamp: env.Timestamp}, nil
	default:
		return nil, UnknownTypeError{Type: env.Type}
	}
}

// ToObject converts the wire form into a simulation body.
func (p ObjectPayload) ToObject() *sim.Object {
	shape := sim.Shape{Kind: sim.ShapeKind(p.Type)}
	switch shape.Kind {
	case sim.ShapeRectangle:
		shape.Width = p.Width
		shape.Height = p.Height
	default:
		shape.Kind = sim.ShapeCircle
		shape.Radius = p.Radius
	}
	return &sim.Object{
		ID:       p.ID,
		Position: sim.Vec2{X: p.X, Y: p.Y},
		Velocity: p.Velocity,
		Mass:     p.Mass,
		Shape:    shape,
	}
}

// FromObject converts a simulation body into its wire form.
func FromObject(obj *sim.Object) ObjectPayload {
	payload := ObjectPayload{
		ID:       obj.ID,
		X:        obj.Position.X,
		Y:        obj.Position.Y,
		Velocity: obj.Velocity,
		Mass:     obj.Mass,
		Type:     string(obj.Shape.Kind),
	}
	switch obj.Shape.Kind {
	case sim.ShapeRectangle:
		payload.Width = obj.Shape.Width
		payload.Height = obj.Shape.Height
	default:
		payload.Radius = obj.Shape.Radius
	}
	return payload
}

// InitFromConfig renders a world configuration as a physics_init payload.
func InitFromConfig(cfg sim.Config) InitPayload {
	return InitPayload{Gravity: cfg.Gravity, WorldBounds: cfg.Bounds}
}

// ConfigFromInit applies a physics_init payload as a world configuration.
func ConfigFromInit(init InitPayload) sim.Config {
	return sim.Config{Gravity: init.Gravity, Bounds: init.WorldBounds}
}
