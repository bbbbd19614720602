package sim

const (
	// Restitution is the fraction of velocity magnitude retained per bounce.
	Restitution = 0.8

	// frameScale normalizes velocity units to "per nominal 60fps frame"
	// regardless of the actual elapsed time. Every client integrates with the
	// same factor; worlds diverge if it changes.
	frameScale = 60.0
)

// Advance moves one body forward by dt seconds using semi-implicit Euler and
// resolves boundary collisions for circles. Rectangles integrate but receive
// no collision resolution.
func Advance(obj *Object, cfg Config, dt float64) {
	obj.Velocity.Y += cfg.Gravity.Y * dt

	obj.Position.X += obj.Velocity.X * dt * frameScale
	obj.Position.Y += obj.Velocity.Y * dt * frameScale

	if obj.Shape.Kind != ShapeCircle {
		return
	}

	r := obj.Shape.Radius
	if obj.Position.Y+r > cfg.Bounds.Height {
		obj.Position.Y = cfg.Bounds.Height - r
		obj.Velocity.Y = -obj.Velocity.Y * Restitution
	}
	if obj.Position.Y-r < 0 {
		obj.Position.Y = r
		obj.Velocity.Y = -obj.Velocity.Y * Restitution
	}
	if obj.Position.X+r > cfg.Bounds.Width {
		obj.Position.X = cfg.Bounds.Width - r
		obj.Velocity.X = -obj.Velocity.X * Restitution
	}
	if obj.Position.X-r < 0 {
		obj.Position.X = r
		obj.Velocity.X = -obj.Velocity.X * Restitution
	}
}
