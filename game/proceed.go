package game

import (
	"math"
	"time"

	"github.com/burbokop/fast-pased-mp-game/geom"
)

// reflectSnap places a bounced entity just short of the crossing point
// so the next tick does not immediately re-collide with the same line.
const reflectSnap = 0.99

// reflect bounces a motion off the first shield or world edge it
// crosses. Shields are checked first and mirror the rotation across the
// shield line; world edges force the rotation component perpendicular
// to the edge back inward.
func reflect(pos *geom.Point, rot *geom.Complex, bounds geom.Rect, shields []geom.Segment, motion geom.Segment) bool {
	for _, sh := range shields {
		t, u, ok := motion.Cast(sh)
		if !ok || t <= 0 || t >= 1 || u <= 0 || u >= 1 {
			continue
		}
		*pos = motion.PointAt(t * reflectSnap)
		*rot = rot.ReflectFrom(sh.Vec())
		return true
	}
	for i, edge := range bounds.Edges() {
		t, u, ok := motion.Cast(edge)
		if !ok || t <= 0 || t >= 1 || u <= 0 || u >= 1 {
			continue
		}
		*pos = motion.PointAt(t * reflectSnap)
		switch i {
		case 0:
			rot.I = math.Abs(rot.I)
		case 1:
			rot.R = -math.Abs(rot.R)
		case 2:
			rot.I = -math.Abs(rot.I)
		case 3:
			rot.R = math.Abs(rot.R)
		default:
			panic("game: rect has exactly four edges")
		}
		return true
	}
	return false
}

// step advances a moving point one tick. The look-ahead motion segment
// is twice the actual step so crossings are caught before the point
// lands on the far side. Reports whether a bounce happened.
func step(pos *geom.Point, rot *geom.Complex, vel, dtSec float64, bounds geom.Rect, shields []geom.Segment) bool {
	motion := geom.Segment{P0: *pos, P1: pos.Add(geom.Polar(*rot, vel*2*dtSec))}
	if reflect(pos, rot, bounds, shields, motion) {
		return true
	}
	*pos = pos.Add(geom.Polar(*rot, vel*dtSec))
	return false
}

// Proceed advances the world by dt: projectiles move, bounce and
// expire, damage is resolved, condemned projectiles are swept out and
// mine debris is materialized. Characters never move here; their
// position only changes through player input.
func (s *State) Proceed(now time.Time, dt time.Duration) {
	dtSec := dt.Seconds()
	shields := s.shieldSegments(0)

	kept := s.Entities[:0]
	for _, e := range s.Entities {
		if e.IsCharacter() {
			kept = append(kept, e)
			continue
		}
		spec := e.Proj
		age := e.Age(now)
		switch spec.Kind {
		case ProjectileRay:
			if age < spec.Life {
				if step(&e.Pos, &e.Rot, e.Velocity, dtSec, s.WorldBounds, shields) {
					e.Tail.ReflectionPoints = append(e.Tail.ReflectionPoints, e.Pos)
				}
			}
			if age > spec.TailFreeze {
				if step(&e.Tail.End, &e.Tail.Rot, e.Velocity, dtSec, s.WorldBounds, shields) {
					if len(e.Tail.ReflectionPoints) > 0 {
						e.Tail.ReflectionPoints = e.Tail.ReflectionPoints[1:]
					}
				}
			}
			if age < spec.Life+spec.TailFreeze {
				kept = append(kept, e)
			}
		case ProjectileMine:
			e.Activated = age > spec.Activation
			vel := e.Velocity
			next := vel + spec.Acceleration*dtSec
			if math.Signbit(next) == math.Signbit(vel) {
				e.Velocity = next
			}
			step(&e.Pos, &e.Rot, vel, dtSec, s.WorldBounds, shields)
			if age < spec.Life {
				kept = append(kept, e)
			}
		default:
			step(&e.Pos, &e.Rot, e.Velocity, dtSec, s.WorldBounds, shields)
			if age < spec.Life {
				kept = append(kept, e)
			}
		}
	}
	s.Entities = kept

	debris := s.resolveDamage(now, dtSec)
	s.sweep()
	for _, d := range debris {
		s.Create(d.info, d.playerID, now)
	}
}

type pendingDebris struct {
	info     CreateInfo
	playerID uint64
}

// resolveDamage runs every character against every projectile. A
// character takes at most one damage event per tick; whoever reaches
// zero health is queued into the kills list. Mines never subtract
// health themselves: inside the detection radius they shove the
// character away, inside the explosion radius they burst into debris.
func (s *State) resolveDamage(now time.Time, dtSec float64) []pendingDebris {
	var debris []pendingDebris
	for i := range s.Entities {
		char := &s.Entities[i]
		if !char.IsCharacter() {
			continue
		}
		for j := range s.Entities {
			if j == i {
				continue
			}
			proj := &s.Entities[j]
			if !proj.IsProjectile() {
				continue
			}
			spec := proj.Proj

			hit := false
			var push geom.Vector
			hasPush := false
			switch spec.Kind {
			case ProjectileBall:
				if ownerGate(char, proj, now) && char.Health != 0 && proj.Health != 0 &&
					char.Pos.Sub(proj.Pos).Len() < char.InscribedRadius()+proj.InscribedRadius() {
					s.damage(char, proj, now)
					hit = true
				}
			case ProjectileRay:
				if ownerGate(char, proj, now) && char.Health != 0 && proj.Health != 0 &&
					rayHits(proj, char) {
					s.damage(char, proj, now)
					hit = true
				}
			case ProjectileMine:
				if proj.Activated && ownerGate(char, proj, now) {
					d := char.Pos.Sub(proj.Pos).Len()
					if d < char.InscribedRadius()+spec.DetectionRadius {
						push = char.Pos.Sub(proj.Pos).Normalized().Scale(-2 * spec.Acceleration * dtSec)
						hasPush = true
					}
					// At most one detonation even when several
					// characters sit inside the blast radius.
					if d < char.InscribedRadius()+spec.ExplosionRadius && s.killIndex(proj.ID) < 0 {
						for k := 0; k < spec.DebrisCount; k++ {
							rot := geom.FromRad(float64(k) / float64(spec.DebrisCount) * 2 * math.Pi)
							debris = append(debris, pendingDebris{
								info: CreateInfo{
									Pos:   proj.Pos,
									Rot:   rot,
									Color: proj.Color,
									Proj:  spec.Debris,
									Tail:  &Tail{End: proj.Pos, Rot: rot},
								},
								playerID: proj.PlayerID,
							})
						}
						s.Kills = append(s.Kills, proj.ID)
						hit = true
					}
				}
			}
			if hit {
				break
			}
			if hasPush {
				char.Pos = char.Pos.Add(push)
			}
		}
	}
	return debris
}

// ownerGate rejects a projectile acting on its own player's character
// while the owner invincibility window is still open.
func ownerGate(char, proj *Entity, now time.Time) bool {
	return proj.PlayerID != char.PlayerID || proj.Age(now) > proj.Proj.OwnerInvincibility
}

// rayHits traces the ray from tail end through every recorded bend to
// the head and tests each trace segment against the character's box.
func rayHits(proj, char *Entity) bool {
	trace := make([]geom.Point, 0, len(proj.Tail.ReflectionPoints)+2)
	trace = append(trace, proj.Tail.End)
	trace = append(trace, proj.Tail.ReflectionPoints...)
	trace = append(trace, proj.Pos)
	verts := char.Vertices()
	for _, seg := range geom.ChainSegments(trace) {
		if _, ok := geom.Collide([]geom.Point{seg.P0, seg.P1}, verts[:]); ok {
			return true
		}
	}
	return false
}

func (s *State) damage(char, proj *Entity, now time.Time) {
	char.Health--
	proj.Health--
	if char.Health == 0 {
		s.Kills = append(s.Kills, char.ID)
		s.frags = append(s.frags, Frag{
			KillerID: proj.PlayerID,
			VictimID: char.PlayerID,
			Weapon:   proj.Proj.Kind,
			At:       now,
		})
	}
	if proj.Health == 0 {
		s.Kills = append(s.Kills, proj.ID)
	}
}

// sweep removes condemned projectiles, consuming their kill records.
// Characters stay: their removal goes through AccountKill so the owning
// connection can transition its session state.
func (s *State) sweep() {
	kept := s.Entities[:0]
	for _, e := range s.Entities {
		if e.IsProjectile() {
			if idx := s.killIndex(e.ID); idx >= 0 {
				s.Kills = append(s.Kills[:idx], s.Kills[idx+1:]...)
				continue
			}
		}
		kept = append(kept, e)
	}
	s.Entities = kept
}
