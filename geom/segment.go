package geom

// Segment is a directed line segment from P0 to P1.
type Segment struct {
	P0 Point `json:"p0"`
	P1 Point `json:"p1"`
}

// Vec returns the displacement from P0 to P1.
func (s Segment) Vec() Vector { return s.P1.Sub(s.P0) }

// PointAt returns the point at parameter t along the segment. t=0 is P0,
// t=1 is P1; values outside [0,1] extrapolate along the carrier line.
func (s Segment) PointAt(t float64) Point {
	return s.P0.Add(s.Vec().Scale(t))
}

// Cast intersects the carrier lines of s and o. On success t is the
// parameter along s and u the parameter along o. Parallel segments
// report no hit.
func (s Segment) Cast(o Segment) (t, u float64, ok bool) {
	ab := s.Vec()
	cd := o.Vec()
	denom := ab.Cross(cd)
	if denom == 0 {
		return 0, 0, false
	}
	ac := o.P0.Sub(s.P0)
	t = ac.Cross(cd) / denom
	u = ac.Cross(ab) / denom
	return t, u, true
}

// Intersects reports whether the segments cross strictly inside both,
// excluding shared endpoints.
func (s Segment) Intersects(o Segment) bool {
	t, u, ok := s.Cast(o)
	return ok && t > 0 && t < 1 && u > 0 && u < 1
}

// IntersectsIncluding is like Intersects but counts touching endpoints
// as a crossing.
func (s Segment) IntersectsIncluding(o Segment) bool {
	t, u, ok := s.Cast(o)
	return ok && t >= 0 && t <= 1 && u >= 0 && u <= 1
}

// Rect is an axis-aligned rectangle with origin at the top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Points returns the corners in clockwise order starting top-left.
func (r Rect) Points() [4]Point {
	return [4]Point{
		{r.X, r.Y},
		{r.X + r.W, r.Y},
		{r.X + r.W, r.Y + r.H},
		{r.X, r.Y + r.H},
	}
}

// Edges returns the sides in order top, right, bottom, left.
func (r Rect) Edges() [4]Segment {
	p := r.Points()
	return [4]Segment{
		{p[0], p[1]},
		{p[1], p[2]},
		{p[2], p[3]},
		{p[3], p[0]},
	}
}

func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// RingSegments joins consecutive points into segments and closes the
// loop back to the first point.
func RingSegments(points []Point) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points))
	for i := 1; i < len(points); i++ {
		segs = append(segs, Segment{points[i-1], points[i]})
	}
	segs = append(segs, Segment{points[len(points)-1], points[0]})
	return segs
}

// ChainSegments joins consecutive points into an open polyline.
func ChainSegments(points []Point) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		segs = append(segs, Segment{points[i-1], points[i]})
	}
	return segs
}
