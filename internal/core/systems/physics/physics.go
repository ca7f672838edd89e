package physics

import "math"

// Vec2 is a 2D vector in surface coordinates (meters, or meters/second for velocities).
type Vec2 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// V2 is shorthand for Vec2{X: x, Y: y}.
func V2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }
func (v Vec2) DistanceTo(o Vec2) float64 { return Distance2(v.X, v.Y, o.X, o.Y) }

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Unit returns the unit vector of v. The zero vector maps to itself.
func (v Vec2) Unit() Vec2 {
	n := v.Norm()
	if n == 0 {
		return Vec2{}
	}
	return Vec2{v.X / n, v.Y / n}
}

// ClampMagnitude limits v to maxMag while preserving direction.
// Returns v unchanged if its magnitude is <= maxMag. Vectors whose norm overflows, infinite
// components included, still clamp to a finite vector.
func ClampMagnitude(v Vec2, maxMag float64) Vec2 {
	n := v.Norm()
	if n <= maxMag || n == 0 {
		return v
	}
	if math.IsInf(n, 1) {
		return direction(v).Unit().Scale(maxMag)
	}
	return v.Scale(maxMag / n)
}

// direction rescales v into a vector of the same heading whose norm cannot overflow.
// Infinite components dominate any finite ones.
func direction(v Vec2) Vec2 {
	if math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
		return Vec2{infSign(v.X), infSign(v.Y)}
	}
	m := math.Max(math.Abs(v.X), math.Abs(v.Y))
	return Vec2{v.X / m, v.Y / m}
}

func infSign(f float64) float64 {
	switch {
	case math.IsInf(f, 1):
		return 1
	case math.IsInf(f, -1):
		return -1
	default:
		return 0
	}
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }
