package game

import (
	"time"

	"github.com/burbokop/fast-pased-mp-game/geom"
)

const (
	characterHealth = 3
	characterRadius = 8
	rayRadius       = 2
)

// Tail is the receding trail of a ray projectile. End chases the head
// along the recorded reflection points so the drawn trace keeps bending
// where the head bounced.
type Tail struct {
	End              geom.Point   `json:"end"`
	Rot              geom.Complex `json:"rot"`
	ReflectionPoints []geom.Point `json:"refl,omitempty"`
}

// Entity is anything living in the world: a player character or a
// projectile. Exactly one of Weapon and Proj is set and decides the
// role. The birth time is server-side only and never leaves the wire.
type Entity struct {
	ID        uint32          `json:"id"`
	PlayerID  uint64          `json:"pid"`
	Pos       geom.Point      `json:"pos"`
	Rot       geom.Complex    `json:"rot"`
	Color     Color           `json:"color"`
	Health    int             `json:"hp"`
	Velocity  float64         `json:"vel,omitempty"`
	Activated bool            `json:"activated,omitempty"`
	Weapon    *Weapon         `json:"weapon,omitempty"`
	Proj      *ProjectileSpec `json:"proj,omitempty"`
	Tail      *Tail           `json:"tail,omitempty"`
	Born      time.Time       `json:"-"`
}

func (e *Entity) IsCharacter() bool { return e.Weapon != nil }
func (e *Entity) IsProjectile() bool { return e.Proj != nil }

func (e *Entity) Age(now time.Time) time.Duration { return now.Sub(e.Born) }

// Lerp blends the receiver toward b: position and rotation interpolate,
// everything else is taken from b.
func (e Entity) Lerp(b Entity, t float64) Entity {
	out := b
	out.Pos = e.Pos.Lerp(b.Pos, t)
	out.Rot = e.Rot.Lerp(b.Rot, t)
	return out
}

// InscribedRadius is the radius of the circle used for coarse contact
// tests against this entity.
func (e *Entity) InscribedRadius() float64 {
	if e.IsCharacter() {
		return characterRadius
	}
	switch e.Proj.Kind {
	case ProjectileRay:
		return rayRadius
	default:
		return e.Proj.Radius
	}
}

// Vertices returns the rotated bounding box corners of the entity,
// clockwise from the top left.
func (e *Entity) Vertices() [4]geom.Point {
	r := float64(characterRadius)
	return [4]geom.Point{
		e.Pos.Add(geom.Vector{X: -r, Y: -r}.Rotate(e.Rot)),
		e.Pos.Add(geom.Vector{X: r, Y: -r}.Rotate(e.Rot)),
		e.Pos.Add(geom.Vector{X: r, Y: r}.Rotate(e.Rot)),
		e.Pos.Add(geom.Vector{X: -r, Y: r}.Rotate(e.Rot)),
	}
}

// clone deep-copies the entity so two state snapshots never share a
// mutable tail.
func (e Entity) clone() Entity {
	if e.Tail != nil {
		t := *e.Tail
		t.ReflectionPoints = append([]geom.Point(nil), e.Tail.ReflectionPoints...)
		e.Tail = &t
	}
	return e
}
