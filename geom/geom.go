// Package geom provides the 2D primitives the simulation is built on:
// points, direction vectors, unit-complex rotations and axis-aligned
// rectangles, plus segment ray casting and SAT polygon collision.
package geom

import "math"

// Lerp linearly interpolates between a and b. t=0 yields a, t=1 yields b.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Point is a position in world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vector is a displacement between two points.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Complex is a rotation stored as cos/sin pair. Multiplying two of them
// composes the rotations.
type Complex struct {
	R float64 `json:"r"`
	I float64 `json:"i"`
}

func (p Point) Add(v Vector) Point { return Point{p.X + v.X, p.Y + v.Y} }
func (p Point) Sub(o Point) Vector { return Vector{p.X - o.X, p.Y - o.Y} }
func (p Point) Lerp(o Point, t float64) Point {
	return Point{Lerp(p.X, o.X, t), Lerp(p.Y, o.Y, t)}
}

// Inflate returns the square of half-size r centered on p.
func (p Point) Inflate(r float64) Rect {
	return Rect{X: p.X - r, Y: p.Y - r, W: 2 * r, H: 2 * r}
}

func (v Vector) Add(o Vector) Vector { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Neg() Vector { return Vector{-v.X, -v.Y} }
func (v Vector) Scale(f float64) Vector { return Vector{v.X * f, v.Y * f} }

func (v Vector) Dot(o Vector) float64 { return v.X*o.X + v.Y*o.Y }
func (v Vector) Cross(o Vector) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vector) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vector) Normalized() Vector {
	l := v.Len()
	if l == 0 {
		return Vector{}
	}
	return Vector{v.X / l, v.Y / l}
}

// LeftPerpendicular rotates v a quarter turn counterclockwise.
func (v Vector) LeftPerpendicular() Vector { return Vector{-v.Y, v.X} }

// Rotate applies the rotation c to v.
func (v Vector) Rotate(c Complex) Vector {
	return Vector{v.X*c.R - v.Y*c.I, v.X*c.I + v.Y*c.R}
}

// NoRot is the identity rotation.
func NoRot() Complex { return Complex{R: 1, I: 0} }

// FromRad builds the rotation of the given angle in radians.
func FromRad(a float64) Complex { return Complex{R: math.Cos(a), I: math.Sin(a)} }

// Polar returns the displacement of the given length in the direction rot.
func Polar(rot Complex, length float64) Vector {
	return Vector{rot.R * length, rot.I * length}
}

func (c Complex) Mul(o Complex) Complex {
	return Complex{c.R*o.R - c.I*o.I, c.R*o.I + c.I*o.R}
}

func (c Complex) Conj() Complex { return Complex{c.R, -c.I} }

func (c Complex) Len() float64 { return math.Hypot(c.R, c.I) }

func (c Complex) Normalized() Complex {
	l := c.Len()
	if l == 0 {
		return NoRot()
	}
	return Complex{c.R / l, c.I / l}
}

func (c Complex) Lerp(o Complex, t float64) Complex {
	return Complex{Lerp(c.R, o.R, t), Lerp(c.I, o.I, t)}
}

// ReflectFrom mirrors the direction c across the line spanned by axis.
// With u the unit rotation of axis, the mirror image of c is u*u*conj(c).
func (c Complex) ReflectFrom(axis Vector) Complex {
	u := Complex{R: axis.X, I: axis.Y}.Normalized()
	return u.Mul(u).Mul(c.Conj())
}
