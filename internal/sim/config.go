package sim

const (
	// DefaultGravityY matches the value the relay hands out in physics_init.
	DefaultGravityY = 9.81
	DefaultWidth    = 800.0
	DefaultHeight   = 600.0

	defaultBallRadius = 20.0
	defaultBallMass   = 1.0
)

// Config is the per-simulation world configuration. Exactly one Config exists
// per simulation instance; replacements are last-writer-wins.
type Config struct {
	Gravity Vec2   `json:"gravity"`
	Bounds  Bounds `json:"bounds"`
}

// DefaultConfig returns the fixed world configuration the relay seeds new
// clients with.
func DefaultConfig() Config {
	return Config{
		Gravity: Vec2{X: 0, Y: DefaultGravityY},
		Bounds:  Bounds{Width: DefaultWidth, Height: DefaultHeight},
	}
}

// DemoObjects returns the two default demo balls used on startup and reset.
func DemoObjects() []*Object {
	return []*Object{
		NewCircle("ball-1", 200, 100, Vec2{X: 2, Y: 0}, defaultBallMass, defaultBallRadius),
		NewCircle("ball-2", 400, 150, Vec2{X: -1.5, Y: 0}, defaultBallMass, defaultBallRadius),
	}
}
