package geom

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLerpEndpoints(t *testing.T) {
	if got := Lerp(3, 7, 0); got != 3 {
		t.Errorf("Lerp t=0 = %v, want 3", got)
	}
	if got := Lerp(3, 7, 1); got != 7 {
		t.Errorf("Lerp t=1 = %v, want 7", got)
	}
	if got := Lerp(0, 10, 0.25); got != 2.5 {
		t.Errorf("Lerp t=0.25 = %v, want 2.5", got)
	}
}

func TestPointLerp(t *testing.T) {
	a := Point{0, 0}
	b := Point{10, 20}
	if got := a.Lerp(b, 0); got != a {
		t.Errorf("lerp t=0 = %+v, want %+v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("lerp t=1 = %+v, want %+v", got, b)
	}
	mid := a.Lerp(b, 0.5)
	if mid.X != 5 || mid.Y != 10 {
		t.Errorf("lerp t=0.5 = %+v, want {5 10}", mid)
	}
}

func TestVectorRotate(t *testing.T) {
	// Quarter turn takes +X to +Y.
	v := Vector{1, 0}.Rotate(FromRad(math.Pi / 2))
	if !almostEqual(v.X, 0) || !almostEqual(v.Y, 1) {
		t.Errorf("rotate pi/2 = %+v, want {0 1}", v)
	}
	if got := (Vector{3, 4}).Rotate(NoRot()); got != (Vector{3, 4}) {
		t.Errorf("identity rotation changed vector: %+v", got)
	}
}

func TestLeftPerpendicular(t *testing.T) {
	if got := (Vector{1, 0}).LeftPerpendicular(); got != (Vector{0, 1}) {
		t.Errorf("perp of {1 0} = %+v, want {0 1}", got)
	}
	if got := (Vector{0, 1}).LeftPerpendicular(); got != (Vector{-1, 0}) {
		t.Errorf("perp of {0 1} = %+v, want {-1 0}", got)
	}
}

func TestComplexMul(t *testing.T) {
	a := FromRad(math.Pi / 6)
	b := FromRad(math.Pi / 3)
	c := a.Mul(b)
	if !almostEqual(c.R, 0) || !almostEqual(c.I, 1) {
		t.Errorf("pi/6 * pi/3 = %+v, want {0 1}", c)
	}
}

func TestReflectFrom(t *testing.T) {
	// Mirroring across the horizontal axis flips the vertical component.
	d := Complex{R: 0.6, I: 0.8}
	r := d.ReflectFrom(Vector{1, 0})
	if !almostEqual(r.R, 0.6) || !almostEqual(r.I, -0.8) {
		t.Errorf("reflect across x axis = %+v, want {0.6 -0.8}", r)
	}

	// Mirroring across the vertical axis flips the horizontal component.
	r = d.ReflectFrom(Vector{0, 5})
	if !almostEqual(r.R, -0.6) || !almostEqual(r.I, 0.8) {
		t.Errorf("reflect across y axis = %+v, want {-0.6 0.8}", r)
	}

	// Reflecting twice across the same axis restores the direction.
	twice := d.ReflectFrom(Vector{1, 2}).ReflectFrom(Vector{1, 2})
	if !almostEqual(twice.R, d.R) || !almostEqual(twice.I, d.I) {
		t.Errorf("double reflection = %+v, want %+v", twice, d)
	}
}

func TestSegmentCast(t *testing.T) {
	motion := Segment{Point{0, 0}, Point{10, 0}}
	wall := Segment{Point{5, -5}, Point{5, 5}}

	u, v, ok := motion.Cast(wall)
	if !ok {
		t.Fatal("expected intersection")
	}
	if !almostEqual(u, 0.5) || !almostEqual(v, 0.5) {
		t.Errorf("cast params = %v, %v, want 0.5, 0.5", u, v)
	}
	hit := motion.PointAt(u)
	if !almostEqual(hit.X, 5) || !almostEqual(hit.Y, 0) {
		t.Errorf("hit point = %+v, want {5 0}", hit)
	}

	if !motion.Intersects(wall) {
		t.Error("segments should intersect")
	}
}

func TestSegmentCastParallel(t *testing.T) {
	a := Segment{Point{0, 0}, Point{10, 0}}
	b := Segment{Point{0, 1}, Point{10, 1}}
	if _, _, ok := a.Cast(b); ok {
		t.Error("parallel segments must not intersect")
	}
	if a.Intersects(b) {
		t.Error("parallel segments must not intersect")
	}
}

func TestSegmentIntersectsExcludesEndpoints(t *testing.T) {
	a := Segment{Point{0, 0}, Point{10, 0}}
	touch := Segment{Point{10, -5}, Point{10, 5}}
	if a.Intersects(touch) {
		t.Error("endpoint touch must not count for the strict test")
	}
	if !a.IntersectsIncluding(touch) {
		t.Error("endpoint touch must count for the inclusive test")
	}
}

func TestRectPointsOrder(t *testing.T) {
	r := Rect{X: 1, Y: 2, W: 3, H: 4}
	p := r.Points()
	want := [4]Point{{1, 2}, {4, 2}, {4, 6}, {1, 6}}
	if p != want {
		t.Errorf("points = %v, want %v", p, want)
	}

	e := r.Edges()
	if e[0] != (Segment{Point{1, 2}, Point{4, 2}}) {
		t.Errorf("edge 0 should be the top edge, got %+v", e[0])
	}
	if e[3] != (Segment{Point{1, 6}, Point{1, 2}}) {
		t.Errorf("edge 3 should be the left edge, got %+v", e[3])
	}
}

func square(x, y, half float64) []Point {
	return []Point{
		{x - half, y - half},
		{x + half, y - half},
		{x + half, y + half},
		{x - half, y + half},
	}
}

func TestCollideDisjoint(t *testing.T) {
	if _, ok := Collide(square(0, 0, 5), square(20, 0, 5)); ok {
		t.Error("disjoint squares must not collide")
	}
	if _, ok := Collide(square(0, 0, 5), square(0, 20, 5)); ok {
		t.Error("vertically disjoint squares must not collide")
	}
}

func TestCollideOverlap(t *testing.T) {
	// Two unit-10 squares overlapping by 2 along X. The shortest exit
	// pushes along X and clears the overlap.
	exit, ok := Collide(square(0, 0, 5), square(8, 0, 5))
	if !ok {
		t.Fatal("overlapping squares must collide")
	}
	if !almostEqual(math.Abs(exit.X), 2) || !almostEqual(exit.Y, 0) {
		t.Errorf("exit = %+v, want magnitude {2 0}", exit)
	}
	if !almostEqual(exit.Len(), 2) {
		t.Errorf("exit length = %v, want 2", exit.Len())
	}
}

func TestCollidePicksSmallestAxis(t *testing.T) {
	// Overlap is 2 along X but 8 along Y, so the exit must be horizontal.
	exit, ok := Collide(square(0, 0, 5), square(8, 1, 5))
	if !ok {
		t.Fatal("overlapping squares must collide")
	}
	if math.Abs(exit.X) < math.Abs(exit.Y) {
		t.Errorf("exit should be along X, got %+v", exit)
	}
}

func TestRingAndChainSegments(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {1, 1}}
	ring := RingSegments(pts)
	if len(ring) != 3 {
		t.Fatalf("ring segments = %d, want 3", len(ring))
	}
	if ring[2] != (Segment{Point{1, 1}, Point{0, 0}}) {
		t.Errorf("ring must close back to the first point, got %+v", ring[2])
	}
	chain := ChainSegments(pts)
	if len(chain) != 2 {
		t.Fatalf("chain segments = %d, want 2", len(chain))
	}
}
