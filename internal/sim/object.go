package sim

// Vec2 is a two-component vector in world units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds describes the axis-aligned play area. Width and height are positive.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShapeKind discriminates the supported body shapes.
type ShapeKind string

const (
	ShapeCircle    ShapeKind = "circle"
	ShapeRectangle ShapeKind = "rectangle"
)

// Shape carries the per-kind dimensions of a body. Radius applies to circles,
// Width/Height to rectangles. Shapes are immutable after creation.
type Shape struct {
	Kind   ShapeKind `json:"type"`
	Radius float64   `json:"radius,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Height float64   `json:"height,omitempty"`
}

// Object is one simulated body. ID is immutable once created; Position and
// Velocity are mutated only by the integrator or by a remote replacement.
type Object struct {
	ID       string  `json:"id"`
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Mass     float64 `json:"mass"`
	Shape    Shape   `json:"shape"`
}

// NewCircle builds a circle body at rest apart from the given velocity.
func NewCircle(id string, x, y float64, vel Vec2, mass, radius float64) *Object {
	return &Object{
		ID:       id,
		Position: Vec2{X: x, Y: y},
		Velocity: vel,
		Mass:     mass,
		Shape:    Shape{Kind: ShapeCircle, Radius: radius},
	}
}

// Clone returns an independent copy so cross-boundary transfers never alias.
func (o *Object) Clone() *Object {
	copied := *o
	return &copied
}
