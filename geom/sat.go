package geom

import "math"

// Collide runs the separating axis test over two convex polygons. The
// candidate axes are the left perpendiculars of every edge of both
// polygons. If any axis separates the shapes there is no collision.
// Otherwise the returned exit vector is the shortest displacement that
// moves polygon a out of polygon b.
func Collide(a, b []Point) (Vector, bool) {
	axes := make([]Vector, 0, len(a)+len(b))
	for _, s := range RingSegments(a) {
		axes = append(axes, s.Vec().LeftPerpendicular().Normalized())
	}
	for _, s := range RingSegments(b) {
		axes = append(axes, s.Vec().LeftPerpendicular().Normalized())
	}

	var exit Vector
	found := false
	for _, axis := range axes {
		aLo, aHi := projectExtents(a, axis)
		bLo, bHi := projectExtents(b, axis)
		if aLo.X <= bHi.X && bLo.X <= aHi.X && aLo.Y <= bHi.Y && bLo.Y <= aHi.Y {
			e := Vector{
				X: absMin(bHi.X-aLo.X, bLo.X-aHi.X),
				Y: absMin(bHi.Y-aLo.Y, bLo.Y-aHi.Y),
			}
			if !found || e.Len() < exit.Len() {
				exit = e
				found = true
			}
		} else {
			return Vector{}, false
		}
	}
	return exit, found
}

// projectExtents projects every point onto the axis line through the
// origin and folds the projections into componentwise min and max.
func projectExtents(points []Point, axis Vector) (lo, hi Point) {
	d := axis.Dot(axis)
	for i, p := range points {
		f := Vector{p.X, p.Y}.Dot(axis) / d
		q := Point{axis.X * f, axis.Y * f}
		if i == 0 {
			lo, hi = q, q
			continue
		}
		lo = Point{math.Min(lo.X, q.X), math.Min(lo.Y, q.Y)}
		hi = Point{math.Max(hi.X, q.X), math.Max(hi.Y, q.Y)}
	}
	return lo, hi
}

func absMin(a, b float64) float64 {
	if math.Abs(a) < math.Abs(b) {
		return a
	}
	return b
}
