package sim

import (
	"math"
	"testing"
)

func TestAdvanceAccumulatesGravityPerStep(t *testing.T) {
	cfg := Config{Gravity: Vec2{Y: 9.81}, Bounds: Bounds{Width: 10000, Height: 100000}}
	obj := NewCircle("drop", 500, 100, Vec2{}, 1, 5)

	const (
		steps = 120
		dt    = 1.0 / 60.0
	)

	// Replay the fixed-step recurrence independently; the integrator must
	// match it bit for bit, not a closed-form integral.
	wantVY := 0.0
	wantY := obj.Position.Y
	for i := 0; i < steps; i++ {
		wantVY += cfg.Gravity.Y * dt
		wantY += wantVY * dt * 60
	}

	for i := 0; i < steps; i++ {
		Advance(obj, cfg, dt)
	}

	if obj.Velocity.Y != wantVY {
		t.Fatalf("velocity.y = %v, want %v", obj.Velocity.Y, wantVY)
	}
	if obj.Position.Y != wantY {
		t.Fatalf("position.y = %v, want %v", obj.Position.Y, wantY)
	}

	elapsed := float64(steps) * dt
	if math.Abs(obj.Velocity.Y-cfg.Gravity.Y*elapsed) > 1e-9 {
		t.Fatalf("velocity.y = %v, want ≈ g·t = %v", obj.Velocity.Y, cfg.Gravity.Y*elapsed)
	}
}

func TestAdvanceHorizontalUsesFrameScale(t *testing.T) {
	cfg := Config{Bounds: Bounds{Width: 10000, Height: 10000}}
	obj := NewCircle("slider", 100, 100, Vec2{X: 2}, 1, 5)

	Advance(obj, cfg, 1.0/60.0)

	// 2 units per nominal frame: dt·60 restores the per-frame scale.
	if obj.Position.X != 102 {
		t.Fatalf("position.x = %v, want 102", obj.Position.X)
	}
}

func TestAdvanceClampsFlushAgainstBoundary(t *testing.T) {
	cfg := Config{Bounds: Bounds{Width: 800, Height: 600}}

	cases := []struct {
		name   string
		start  Vec2
		vel    Vec2
		wantAt func(o *Object) (pos, want float64)
		inward func(o *Object) bool
	}{
		{
			name:   "floor",
			start:  Vec2{X: 400, Y: 595},
			vel:    Vec2{Y: 10},
			wantAt: func(o *Object) (float64, float64) { return o.Position.Y, 595 },
			inward: func(o *Object) bool { return o.Velocity.Y <= 0 },
		},
		{
			name:   "ceiling",
			start:  Vec2{X: 400, Y: 5},
			vel:    Vec2{Y: -10},
			wantAt: func(o *Object) (float64, float64) { return o.Position.Y, 5 },
			inward: func(o *Object) bool { return o.Velocity.Y >= 0 },
		},
		{
			name:   "right wall",
			start:  Vec2{X: 795, Y: 300},
			vel:    Vec2{X: 10},
			wantAt: func(o *Object) (float64, float64) { return o.Position.X, 795 },
			inward: func(o *Object) bool { return o.Velocity.X <= 0 },
		},
		{
			name:   "left wall",
			start:  Vec2{X: 5, Y: 300},
			vel:    Vec2{X: -10},
			wantAt: func(o *Object) (float64, float64) { return o.Position.X, 5 },
			inward: func(o *Object) bool { return o.Velocity.X >= 0 },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obj := NewCircle("b", tc.start.X, tc.start.Y, tc.vel, 1, 5)
			Advance(obj, cfg, 1.0/60.0)

			pos, want := tc.wantAt(obj)
			if pos != want {
				t.Fatalf("position = %v, want flush at %v", pos, want)
			}
			if !tc.inward(obj) {
				t.Fatalf("velocity %+v still points out of bounds", obj.Velocity)
			}
		})
	}
}

func TestAdvanceBounceLosesExactlyTwentyPercent(t *testing.T) {
	cfg := Config{Bounds: Bounds{Width: 800, Height: 600}}
	obj := NewCircle("b", 400, 598, Vec2{Y: 10}, 1, 5)

	Advance(obj, cfg, 1.0/60.0)

	want := -10.0 * Restitution
	if obj.Velocity.Y != want {
		t.Fatalf("velocity.y after bounce = %v, want exactly %v", obj.Velocity.Y, want)
	}
}

func TestAdvanceIgnoresRectangleCollisions(t *testing.T) {
	cfg := Config{Bounds: Bounds{Width: 800, Height: 600}}
	obj := &Object{
		ID:       "crate",
		Position: Vec2{X: 400, Y: 590},
		Velocity: Vec2{Y: 30},
		Mass:     1,
		Shape:    Shape{Kind: ShapeRectangle, Width: 40, Height: 40},
	}

	Advance(obj, cfg, 1.0/60.0)

	if obj.Position.Y <= 590 {
		t.Fatalf("rectangle should pass through the floor, position.y = %v", obj.Position.Y)
	}
	if obj.Velocity.Y <= 0 {
		t.Fatalf("rectangle velocity must not be reflected, got %v", obj.Velocity.Y)
	}
}
